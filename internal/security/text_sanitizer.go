// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はプロフィールやメッセージ等のユーザー入力テキストを
// サニタイズし、XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayのStrictPolicyを使用し、HTMLタグを一切許可しない。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はユーザー入力テキストのサニタイズ機能のインターフェースを定義する。
// プロフィールの名前・場所・スキル名、スワップリクエストのメッセージ、
// フィードバックのコメントの保存前に使用される。
type TextSanitizerService interface {
	// Sanitize はテキストからHTMLタグを全て除去し、前後の空白を削除して返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// SanitizeList はスキルリスト等の文字列リストの各要素をサニタイズし、
	// 空になった要素を除外して返す。
	SanitizeList(raw []string) []string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはHTMLタグを一切許可せず、テキストのみを通過させる。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はテキストからHTMLタグを全て除去し、前後の空白を削除して返す。
func (s *textSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// SanitizeList は文字列リストの各要素をサニタイズし、空要素を除外して返す。
func (s *textSanitizer) SanitizeList(raw []string) []string {
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		cleaned := s.Sanitize(item)
		if cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
