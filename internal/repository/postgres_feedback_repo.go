package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/skillsync/internal/model"
)

// PostgresFeedbackRepo はPostgreSQLを使用したフィードバックリポジトリ。
type PostgresFeedbackRepo struct {
	db *sql.DB
}

// NewPostgresFeedbackRepo はPostgresFeedbackRepoを生成する。
func NewPostgresFeedbackRepo(db *sql.DB) *PostgresFeedbackRepo {
	return &PostgresFeedbackRepo{db: db}
}

const feedbackColumns = `id, swap_request_id, from_user_id, to_user_id, from_user_name, to_user_name,
	rating, comment, created_at`

func scanFeedback(row interface{ Scan(...any) error }) (*model.Feedback, error) {
	fb := &model.Feedback{}
	err := row.Scan(
		&fb.ID, &fb.SwapRequestID, &fb.FromUserID, &fb.ToUserID, &fb.FromUserName, &fb.ToUserName,
		&fb.Rating, &fb.Comment, &fb.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// Create はフィードバックを作成する。
func (r *PostgresFeedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (`+feedbackColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		fb.ID, fb.SwapRequestID, fb.FromUserID, fb.ToUserID, fb.FromUserName, fb.ToUserName,
		fb.Rating, fb.Comment, fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// FindByID は指定IDのフィードバックを取得する。見つからない場合はnilを返す。
func (r *PostgresFeedbackRepo) FindByID(ctx context.Context, id string) (*model.Feedback, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback WHERE id = $1`, id)

	fb, err := scanFeedback(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}
	return fb, nil
}

// ListByToUser は指定ユーザー宛てのフィードバックを作成日時の降順で返す。
func (r *PostgresFeedbackRepo) ListByToUser(ctx context.Context, toUserID string) ([]*model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback
		 WHERE to_user_id = $1 ORDER BY created_at DESC`, toUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var list []*model.Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		list = append(list, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return list, nil
}

// AverageRatingByToUser は指定ユーザー宛てフィードバックの評価平均と件数を返す。
// フィードバックが1件もない場合は(0, 0)を返す。
func (r *PostgresFeedbackRepo) AverageRatingByToUser(ctx context.Context, toUserID string) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT avg(rating), count(*) FROM feedback WHERE to_user_id = $1`, toUserID,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to average rating: %w", err)
	}
	return avg.Float64, count, nil
}

// Count は全フィードバック件数を返す。
func (r *PostgresFeedbackRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM feedback`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return count, nil
}

// Delete は指定IDのフィードバックを削除する。
func (r *PostgresFeedbackRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	return nil
}

// DeleteByFromUser は指定ユーザーが投稿した全フィードバックを削除する。
func (r *PostgresFeedbackRepo) DeleteByFromUser(ctx context.Context, fromUserID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE from_user_id = $1`, fromUserID)
	if err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FeedbackRepository = (*PostgresFeedbackRepo)(nil)
