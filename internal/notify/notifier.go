// Package notify はユーザーへのメール通知機能を提供する。
package notify

import (
	"context"
	"fmt"

	"github.com/hitoshi/skillsync/internal/model"
)

// Notifier はメール通知送信のインターフェースを定義する。
// 通知の失敗は業務処理を妨げない（ベストエフォート送信）。
type Notifier interface {
	// SwapRequested は新しいスワップリクエストを受信者に通知する。
	SwapRequested(ctx context.Context, receiverEmail string, req *model.SwapRequest) error
	// SwapStatusChanged はステータス変更を相手側の当事者に通知する。
	SwapStatusChanged(ctx context.Context, email string, req *model.SwapRequest) error
	// FeedbackReceived は新しいフィードバック受信を宛先ユーザーに通知する。
	FeedbackReceived(ctx context.Context, email string, fb *model.Feedback) error
	// Broadcast は管理者からのお知らせを複数ユーザーに送信する。
	Broadcast(ctx context.Context, emails []string, subject, body string) error
}

// swapRequestedSubject 等は通知メールの件名テンプレート。
const (
	swapRequestedSubject    = "新しいスキル交換リクエストが届きました"
	feedbackReceivedSubject = "新しいフィードバックが届きました"
)

// statusSubjects はステータスごとの件名。
var statusSubjects = map[model.SwapStatus]string{
	model.SwapStatusAccepted:  "スキル交換リクエストが承諾されました",
	model.SwapStatusRejected:  "スキル交換リクエストが見送られました",
	model.SwapStatusCompleted: "スキル交換が完了しました",
}

// formatSwapRequestedBody はリクエスト受信通知の本文を生成する。
func formatSwapRequestedBody(req *model.SwapRequest) string {
	return fmt.Sprintf(
		"%s さんからスキル交換のリクエストが届きました。\n\n提供スキル: %s\n希望スキル: %s\n\nメッセージ:\n%s\n",
		req.SenderName, req.SkillOffered, req.SkillRequested, req.Message,
	)
}

// formatStatusChangedBody はステータス変更通知の本文を生成する。
func formatStatusChangedBody(req *model.SwapRequest) string {
	return fmt.Sprintf(
		"%s さんとのスキル交換リクエスト（%s ⇔ %s）のステータスが「%s」に変わりました。\n",
		req.ReceiverName, req.SkillOffered, req.SkillRequested, req.Status,
	)
}

// formatFeedbackReceivedBody はフィードバック受信通知の本文を生成する。
func formatFeedbackReceivedBody(fb *model.Feedback) string {
	return fmt.Sprintf(
		"%s さんから評価 %d のフィードバックが届きました。\n\nコメント:\n%s\n",
		fb.FromUserName, fb.Rating, fb.Comment,
	)
}
