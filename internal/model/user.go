// Package model はドメインモデルを定義する。
package model

import "time"

// User はスキル交換プラットフォームの利用ユーザーを表す。
// RatingとCompletedSwapsはフィードバック集計により更新される派生値。
type User struct {
	ID             string
	Email          string
	Name           string
	Location       string
	SkillsOffered  []string
	SkillsWanted   []string
	Availability   []string // 空き時間スロット（入力順を保持する）
	IsPublic       bool
	IsAdmin        bool
	PhotoData      []byte
	PhotoMime      string
	JoinDate       time.Time
	Rating         float64 // 受信フィードバックの平均（小数第1位で丸め）
	CompletedSwaps int     // フィードバックを受け取ったスワップの件数
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProfileUpdate はプロフィール部分更新の入力を表す。
// nilフィールドは変更せず、既存の値を維持する。
type ProfileUpdate struct {
	Name          *string
	Location      *string
	SkillsOffered *[]string
	SkillsWanted  *[]string
	Availability  *[]string
	IsPublic      *bool
	PhotoURL      *string // 空文字列は写真の削除を意味する
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
