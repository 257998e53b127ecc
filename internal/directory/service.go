// Package directory は公開プロフィールの閲覧と検索のドメインロジックを提供する。
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/skillsync/internal/model"
	"github.com/hitoshi/skillsync/internal/repository"
)

// Service は公開プロフィールの閲覧と検索のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// GetByID は指定ユーザーのプロフィールを取得する。
// 非公開プロフィールは本人と管理者以外には存在を隠しUSER_NOT_FOUNDを返す。
func (s *Service) GetByID(ctx context.Context, userID string, viewer *model.User) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	if !user.IsPublic && !canViewPrivate(user, viewer) {
		return nil, model.NewUserNotFoundError(userID)
	}

	return user, nil
}

// canViewPrivate は非公開プロフィールの閲覧権限を判定する。
func canViewPrivate(owner, viewer *model.User) bool {
	if viewer == nil {
		return false
	}
	return viewer.ID == owner.ID || viewer.IsAdmin
}

// ListPublic は公開プロフィールのユーザー一覧を作成順で返す。
// viewerID自身は一覧から除外される。
func (s *Service) ListPublic(ctx context.Context, viewerID string) ([]*model.User, error) {
	users, err := s.userRepo.ListPublic(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list public users: %w", err)
	}
	return users, nil
}

// Search は公開プロフィールを検索する。
// termは名前・場所・提供スキルに対する部分一致（大文字小文字を区別しない）、
// skillは提供スキルに対する完全一致。両方指定時はANDで絞り込む。
// 空のtermとskillは全公開ユーザーを返す。
func (s *Service) Search(ctx context.Context, viewerID, term, skill string) ([]*model.User, error) {
	users, err := s.userRepo.ListPublic(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list public users: %w", err)
	}

	term = strings.TrimSpace(term)
	skill = strings.TrimSpace(skill)
	if term == "" && skill == "" {
		return users, nil
	}

	matched := make([]*model.User, 0, len(users))
	for _, u := range users {
		if term != "" && !matchesTerm(u, term) {
			continue
		}
		if skill != "" && !hasSkill(u, skill) {
			continue
		}
		matched = append(matched, u)
	}
	return matched, nil
}

// matchesTerm は検索語が名前・場所・提供スキルのいずれかに部分一致するかを判定する。
func matchesTerm(u *model.User, term string) bool {
	lower := strings.ToLower(term)
	if strings.Contains(strings.ToLower(u.Name), lower) {
		return true
	}
	if strings.Contains(strings.ToLower(u.Location), lower) {
		return true
	}
	for _, s := range u.SkillsOffered {
		if strings.Contains(strings.ToLower(s), lower) {
			return true
		}
	}
	return false
}

// hasSkill は提供スキルに完全一致するものがあるかを判定する。
func hasSkill(u *model.User, skill string) bool {
	for _, s := range u.SkillsOffered {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// ListSkillsOffered は全公開ユーザーの提供スキルを重複なしソート済みで返す。
// 検索画面のスキルフィルター候補として使用される。
func (s *Service) ListSkillsOffered(ctx context.Context) ([]string, error) {
	skills, err := s.userRepo.DistinctSkillsOffered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}
