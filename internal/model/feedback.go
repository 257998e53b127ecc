// Package model はドメインモデルを定義する。
package model

import (
	"math"
	"time"
)

// Feedback は完了したスワップに対する評価コメントを表す。
// 作成後は不変。FromUserName / ToUserName は作成時点のスナップショット。
type Feedback struct {
	ID            string
	SwapRequestID string
	FromUserID    string
	ToUserID      string
	FromUserName  string
	ToUserName    string
	Rating        int // 1〜5の整数
	Comment       string
	CreatedAt     time.Time
}

// RoundRating は評価の平均値を小数第1位に丸める。
// ユーザーのRating不変条件（受信フィードバックの丸め平均）の唯一の実装。
func RoundRating(mean float64) float64 {
	return math.Round(mean*10) / 10
}
