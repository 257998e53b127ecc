// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, swap, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmailExists        = "EMAIL_EXISTS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeSwapNotFound       = "SWAP_NOT_FOUND"
	ErrCodeSelfSwap           = "SELF_SWAP"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidRating      = "INVALID_RATING"
	ErrCodeFeedbackNotFound   = "FEEDBACK_NOT_FOUND"
	ErrCodeInvalidPhotoURL    = "INVALID_PHOTO_URL"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// NewEmailExistsError はメールアドレス重複エラーを生成する。
func NewEmailExistsError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeEmailExists,
		Message:  fmt.Sprintf("このメールアドレスは既に登録されています: %s", email),
		Category: "auth",
		Action:   "別のメールアドレスで登録するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewSwapNotFoundError はスワップリクエストが見つからない場合のエラーを生成する。
func NewSwapNotFoundError(swapID string) *APIError {
	return &APIError{
		Code:     ErrCodeSwapNotFound,
		Message:  fmt.Sprintf("指定されたスワップリクエストが見つかりません: %s", swapID),
		Category: "swap",
		Action:   "リクエストIDを確認してください。",
	}
}

// NewSelfSwapError は自分自身へのリクエスト送信エラーを生成する。
func NewSelfSwapError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfSwap,
		Message:  "自分自身にスワップリクエストを送ることはできません。",
		Category: "validation",
		Action:   "別のユーザーを選択してください。",
	}
}

// NewInvalidTransitionError は不正な状態遷移エラーを生成する。
func NewInvalidTransitionError(from, to SwapStatus) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTransition,
		Message:  fmt.Sprintf("不正な状態遷移です: %s から %s へは変更できません。", from, to),
		Category: "swap",
		Action:   "リクエストの現在の状態を確認してください。",
	}
}

// NewForbiddenError は操作権限がない場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分が当事者であるリクエストに対してのみ操作できます。",
	}
}

// NewInvalidRatingError は評価値が範囲外の場合のエラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価値です: %d", rating),
		Category: "validation",
		Action:   "評価は1から5の整数で指定してください。",
	}
}

// NewFeedbackNotFoundError はフィードバックが見つからない場合のエラーを生成する。
func NewFeedbackNotFoundError(feedbackID string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedbackNotFound,
		Message:  fmt.Sprintf("指定されたフィードバックが見つかりません: %s", feedbackID),
		Category: "validation",
		Action:   "フィードバックIDを確認してください。",
	}
}

// NewInvalidPhotoURLError はプロフィール写真URLが不正な場合のエラーを生成する。
func NewInvalidPhotoURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPhotoURL,
		Message:  fmt.Sprintf("無効なプロフィール写真URLです: %s", reason),
		Category: "validation",
		Action:   "公開されているhttps://のURLを指定してください。ローカルネットワークへのアクセスは許可されていません。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
