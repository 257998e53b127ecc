// Package repository はデータ永続化のインターフェースを定義する。
//
// 各インターフェースにはPostgreSQL実装とインメモリ実装の2つがあり、
// テストおよびローカルデモではインメモリ実装を注入できる。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/skillsync/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレス重複時はエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーの全フィールドを上書き更新する。
	Update(ctx context.Context, user *model.User) error

	// UpdateReputation は評価集計の派生値（rating, completed_swaps）のみを更新する。
	UpdateReputation(ctx context.Context, id string, rating float64, completedSwaps int) error

	// ListPublic は公開プロフィールのユーザーを作成順で返す。
	// excludeIDが空でない場合、そのユーザーを除外する。
	ListPublic(ctx context.Context, excludeID string) ([]*model.User, error)

	// DistinctSkillsOffered は全公開ユーザーの提供スキルを重複なしソート済みで返す。
	DistinctSkillsOffered(ctx context.Context) ([]string, error)

	// Count は全ユーザー数を返す。
	Count(ctx context.Context) (int, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessionsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SwapRequestRepository はスワップリクエストの永続化インターフェース。
type SwapRequestRepository interface {
	// Create はスワップリクエストを作成する。
	Create(ctx context.Context, req *model.SwapRequest) error

	// FindByID は指定IDのリクエストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.SwapRequest, error)

	// ListByParticipant は指定ユーザーが送信者または受信者であるリクエストを
	// 作成日時の降順で返す。
	ListByParticipant(ctx context.Context, userID string) ([]*model.SwapRequest, error)

	// ListAll は全リクエストを作成日時の降順で返す（管理画面用）。
	ListAll(ctx context.Context) ([]*model.SwapRequest, error)

	// UpdateStatus はリクエストのステータスを更新する。
	// 遷移の合法性判定はサービス層の責務であり、ここでは行わない。
	UpdateStatus(ctx context.Context, id string, status model.SwapStatus) error

	// Delete は指定IDのリクエストを無条件に削除する。
	Delete(ctx context.Context, id string) error

	// DeleteByParticipant は指定ユーザーが当事者である全リクエストを削除する。
	DeleteByParticipant(ctx context.Context, userID string) error

	// CountByStatus はステータスごとのリクエスト数を返す。
	CountByStatus(ctx context.Context) (map[model.SwapStatus]int, error)
}

// FeedbackRepository はフィードバックの永続化インターフェース。
type FeedbackRepository interface {
	// Create はフィードバックを作成する。作成後のレコードは不変。
	Create(ctx context.Context, fb *model.Feedback) error

	// FindByID は指定IDのフィードバックを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Feedback, error)

	// ListByToUser は指定ユーザーが受け取ったフィードバックを作成日時の降順で返す。
	ListByToUser(ctx context.Context, toUserID string) ([]*model.Feedback, error)

	// AverageRatingByToUser は指定ユーザーが受け取った評価の平均と件数を返す。
	// フィードバックが存在しない場合は (0, 0) を返す。
	AverageRatingByToUser(ctx context.Context, toUserID string) (float64, int, error)

	// Count は全フィードバック数を返す。
	Count(ctx context.Context) (int, error)

	// Delete は指定IDのフィードバックを削除する。
	// 受信者のrating/completed_swapsの再計算は行わない（既知のギャップ）。
	Delete(ctx context.Context, id string) error

	// DeleteByFromUser は指定ユーザーが書いた全フィードバックを削除する。
	DeleteByFromUser(ctx context.Context, fromUserID string) error
}
