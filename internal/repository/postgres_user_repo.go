package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/skillsync/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, email, name, location, skills_offered, skills_wanted, availability,
	is_public, is_admin, photo_data, photo_mime, join_date, rating, completed_swaps,
	created_at, updated_at`

// scanUser は1行分のユーザーをスキャンする。
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	var photoData []byte
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Location,
		pq.Array(&user.SkillsOffered), pq.Array(&user.SkillsWanted), pq.Array(&user.Availability),
		&user.IsPublic, &user.IsAdmin, &photoData, &user.PhotoMime,
		&user.JoinDate, &user.Rating, &user.CompletedSwaps,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.PhotoData = photoData
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		user.ID, user.Email, user.Name, user.Location,
		pq.Array(user.SkillsOffered), pq.Array(user.SkillsWanted), pq.Array(user.Availability),
		user.IsPublic, user.IsAdmin, user.PhotoData, user.PhotoMime,
		user.JoinDate, user.Rating, user.CompletedSwaps,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はユーザーの全フィールドを上書き更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET
			email = $2, name = $3, location = $4,
			skills_offered = $5, skills_wanted = $6, availability = $7,
			is_public = $8, is_admin = $9, photo_data = $10, photo_mime = $11,
			rating = $12, completed_swaps = $13, updated_at = $14
		 WHERE id = $1`,
		user.ID, user.Email, user.Name, user.Location,
		pq.Array(user.SkillsOffered), pq.Array(user.SkillsWanted), pq.Array(user.Availability),
		user.IsPublic, user.IsAdmin, user.PhotoData, user.PhotoMime,
		user.Rating, user.CompletedSwaps, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	return nil
}

// UpdateReputation は評価集計の派生値のみを更新する。
func (r *PostgresUserRepo) UpdateReputation(ctx context.Context, id string, rating float64, completedSwaps int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET rating = $2, completed_swaps = $3, updated_at = now() WHERE id = $1`,
		id, rating, completedSwaps,
	)
	if err != nil {
		return fmt.Errorf("failed to update reputation: %w", err)
	}
	return nil
}

// ListPublic は公開プロフィールのユーザーを作成順で返す。
func (r *PostgresUserRepo) ListPublic(ctx context.Context, excludeID string) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE is_public = TRUE AND id <> $1
		 ORDER BY created_at ASC`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list public users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// DistinctSkillsOffered は全公開ユーザーの提供スキルを重複なしソート済みで返す。
func (r *PostgresUserRepo) DistinctSkillsOffered(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT unnest(skills_offered) AS skill
		 FROM users WHERE is_public = TRUE
		 ORDER BY skill ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct skills: %w", err)
	}
	defer rows.Close()

	var skills []string
	for rows.Next() {
		var skill string
		if err := rows.Scan(&skill); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, skill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate skills: %w", err)
	}
	return skills, nil
}

// Count は全ユーザー数を返す。
func (r *PostgresUserRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するsessionsはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
