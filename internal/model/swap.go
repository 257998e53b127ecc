// Package model はドメインモデルを定義する。
package model

import "time"

// SwapStatus はスワップリクエストの状態を表す。
type SwapStatus string

const (
	// SwapStatusPending は送信済みで未応答の状態。
	SwapStatusPending SwapStatus = "pending"
	// SwapStatusAccepted は受信者が承諾した状態。
	SwapStatusAccepted SwapStatus = "accepted"
	// SwapStatusRejected は受信者が拒否した終端状態。
	SwapStatusRejected SwapStatus = "rejected"
	// SwapStatusCompleted は交換が完了した終端状態。
	SwapStatusCompleted SwapStatus = "completed"
)

// swapTransitions は合法な状態遷移の表。
// pending -> accepted | rejected、accepted -> completed のみを許可する。
// rejected と completed は終端状態であり、遷移元にならない。
var swapTransitions = map[SwapStatus][]SwapStatus{
	SwapStatusPending:  {SwapStatusAccepted, SwapStatusRejected},
	SwapStatusAccepted: {SwapStatusCompleted},
}

// IsValid はステータス値が定義済みの4値のいずれかであるかを返す。
func (s SwapStatus) IsValid() bool {
	switch s {
	case SwapStatusPending, SwapStatusAccepted, SwapStatusRejected, SwapStatusCompleted:
		return true
	}
	return false
}

// IsTerminal はこの状態から遷移できないことを返す。
func (s SwapStatus) IsTerminal() bool {
	return len(swapTransitions[s]) == 0
}

// CanTransitionTo は現在の状態からtargetへの遷移が合法かを返す。
func (s SwapStatus) CanTransitionTo(target SwapStatus) bool {
	for _, allowed := range swapTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// SwapRequest はスキル交換の提案を表す。
// SenderName / ReceiverName は作成時点のスナップショットであり、
// その後のプロフィール編集には追従しない（表示用の非正規化）。
type SwapRequest struct {
	ID             string
	SenderID       string
	ReceiverID     string
	SenderName     string
	ReceiverName   string
	SkillOffered   string
	SkillRequested string
	Message        string
	Status         SwapStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsParticipant は指定ユーザーがこのリクエストの当事者かを返す。
func (r *SwapRequest) IsParticipant(userID string) bool {
	return r.SenderID == userID || r.ReceiverID == userID
}
