package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/skillsync/internal/model"
)

// PostgresSwapRepo はPostgreSQLを使用したスワップリクエストリポジトリ。
type PostgresSwapRepo struct {
	db *sql.DB
}

// NewPostgresSwapRepo はPostgresSwapRepoを生成する。
func NewPostgresSwapRepo(db *sql.DB) *PostgresSwapRepo {
	return &PostgresSwapRepo{db: db}
}

const swapColumns = `id, sender_id, receiver_id, sender_name, receiver_name,
	skill_offered, skill_requested, message, status, created_at, updated_at`

// scanSwap は1行分のスワップリクエストをスキャンする。
func scanSwap(row interface{ Scan(...any) error }) (*model.SwapRequest, error) {
	req := &model.SwapRequest{}
	err := row.Scan(
		&req.ID, &req.SenderID, &req.ReceiverID, &req.SenderName, &req.ReceiverName,
		&req.SkillOffered, &req.SkillRequested, &req.Message, &req.Status,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Create はスワップリクエストを作成する。
func (r *PostgresSwapRepo) Create(ctx context.Context, req *model.SwapRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO swap_requests (`+swapColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.SenderID, req.ReceiverID, req.SenderName, req.ReceiverName,
		req.SkillOffered, req.SkillRequested, req.Message, req.Status,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert swap request: %w", err)
	}
	return nil
}

// FindByID は指定IDのリクエストを取得する。見つからない場合はnilを返す。
func (r *PostgresSwapRepo) FindByID(ctx context.Context, id string) (*model.SwapRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+swapColumns+` FROM swap_requests WHERE id = $1`, id)

	req, err := scanSwap(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find swap request: %w", err)
	}
	return req, nil
}

// ListByParticipant は指定ユーザーが当事者であるリクエストを作成日時の降順で返す。
func (r *PostgresSwapRepo) ListByParticipant(ctx context.Context, userID string) ([]*model.SwapRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+swapColumns+` FROM swap_requests
		 WHERE sender_id = $1 OR receiver_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list swap requests: %w", err)
	}
	defer rows.Close()

	return collectSwaps(rows)
}

// ListAll は全リクエストを作成日時の降順で返す（管理画面用）。
func (r *PostgresSwapRepo) ListAll(ctx context.Context) ([]*model.SwapRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+swapColumns+` FROM swap_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list swap requests: %w", err)
	}
	defer rows.Close()

	return collectSwaps(rows)
}

func collectSwaps(rows *sql.Rows) ([]*model.SwapRequest, error) {
	var reqs []*model.SwapRequest
	for rows.Next() {
		req, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan swap request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate swap requests: %w", err)
	}
	return reqs, nil
}

// UpdateStatus はリクエストのステータスを更新する。
func (r *PostgresSwapRepo) UpdateStatus(ctx context.Context, id string, status model.SwapStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE swap_requests SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update swap status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("swap request not found: %s", id)
	}
	return nil
}

// Delete は指定IDのリクエストを無条件に削除する。
func (r *PostgresSwapRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM swap_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete swap request: %w", err)
	}
	return nil
}

// DeleteByParticipant は指定ユーザーが当事者である全リクエストを削除する。
func (r *PostgresSwapRepo) DeleteByParticipant(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM swap_requests WHERE sender_id = $1 OR receiver_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete swap requests: %w", err)
	}
	return nil
}

// CountByStatus はステータスごとのリクエスト数を返す。
func (r *PostgresSwapRepo) CountByStatus(ctx context.Context) (map[model.SwapStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, count(*) FROM swap_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count swap requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.SwapStatus]int)
	for rows.Next() {
		var status model.SwapStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status counts: %w", err)
	}
	return counts, nil
}

// compile-time interface check
var _ SwapRequestRepository = (*PostgresSwapRepo)(nil)
