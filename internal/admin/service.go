// Package admin はモデレーションと運用管理のドメインロジックを提供する。
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/skillsync/internal/model"
	"github.com/hitoshi/skillsync/internal/notify"
	"github.com/hitoshi/skillsync/internal/repository"
)

// Stats はプラットフォーム全体の集計値。
type Stats struct {
	TotalUsers    int                       `json:"totalUsers"`
	TotalFeedback int                       `json:"totalFeedback"`
	SwapsByStatus map[model.SwapStatus]int  `json:"swapsByStatus"`
}

// Service は管理者操作のサービス層。
// 全ての操作は呼び出し側ユーザーの管理者権限を検証する。
type Service struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	swapRepo     repository.SwapRequestRepository
	feedbackRepo repository.FeedbackRepository
	notifier     notify.Notifier
}

// NewService はServiceを生成する。notifierはnilを許容する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	swapRepo repository.SwapRequestRepository,
	feedbackRepo repository.FeedbackRepository,
	notifier notify.Notifier,
) *Service {
	return &Service{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		swapRepo:     swapRepo,
		feedbackRepo: feedbackRepo,
		notifier:     notifier,
	}
}

// requireAdmin は管理者権限を検証する。
func requireAdmin(actor *model.User) error {
	if actor == nil || !actor.IsAdmin {
		return model.NewForbiddenError()
	}
	return nil
}

// GetStats はプラットフォーム全体の集計値を返す。
func (s *Service) GetStats(ctx context.Context, actor *model.User) (*Stats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	userCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	feedbackCount, err := s.feedbackRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}
	swapCounts, err := s.swapRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count swap requests: %w", err)
	}

	return &Stats{
		TotalUsers:    userCount,
		TotalFeedback: feedbackCount,
		SwapsByStatus: swapCounts,
	}, nil
}

// ListSwaps は全スワップリクエストを作成日時の降順で返す（モデレーション画面用）。
func (s *Service) ListSwaps(ctx context.Context, actor *model.User) ([]*model.SwapRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reqs, err := s.swapRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list swap requests: %w", err)
	}
	return reqs, nil
}

// DeleteUser はユーザーを関連データごと削除する。
// 削除順序: 投稿フィードバック → 当事者スワップ → セッション → ユーザー。
// 受信済みフィードバックは他ユーザーへの評価履歴として残す。
// 管理者自身の削除は許可しない。
func (s *Service) DeleteUser(ctx context.Context, actor *model.User, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.ID {
		return model.NewForbiddenError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(userID)
	}

	slog.Info("user deletion started",
		slog.String("user_id", userID),
		slog.String("admin_id", actor.ID),
	)

	// 1. 投稿したフィードバックを削除
	if err := s.feedbackRepo.DeleteByFromUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}

	// 2. 当事者であるスワップリクエストを削除
	if err := s.swapRepo.DeleteByParticipant(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete swap requests: %w", err)
	}

	// 3. セッションを削除
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	// 4. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deletion completed",
		slog.String("user_id", userID),
		slog.String("admin_id", actor.ID),
	)
	return nil
}

// DeleteSwap はスワップリクエストをモデレーション目的で削除する。
func (s *Service) DeleteSwap(ctx context.Context, actor *model.User, swapID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	req, err := s.swapRepo.FindByID(ctx, swapID)
	if err != nil {
		return fmt.Errorf("failed to find swap request: %w", err)
	}
	if req == nil {
		return model.NewSwapNotFoundError(swapID)
	}

	if err := s.swapRepo.Delete(ctx, swapID); err != nil {
		return fmt.Errorf("failed to delete swap request: %w", err)
	}

	slog.Info("swap request deleted by admin",
		slog.String("swap_id", swapID),
		slog.String("admin_id", actor.ID),
	)
	return nil
}

// DeleteFeedback はフィードバックをモデレーション目的で削除する。
// 削除後に宛先ユーザーの評価集計は再計算しない（削除は表示からの除外が目的）。
func (s *Service) DeleteFeedback(ctx context.Context, actor *model.User, feedbackID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	fb, err := s.feedbackRepo.FindByID(ctx, feedbackID)
	if err != nil {
		return fmt.Errorf("failed to find feedback: %w", err)
	}
	if fb == nil {
		return model.NewFeedbackNotFoundError(feedbackID)
	}

	if err := s.feedbackRepo.Delete(ctx, feedbackID); err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}

	slog.Info("feedback deleted by admin",
		slog.String("feedback_id", feedbackID),
		slog.String("admin_id", actor.ID),
	)
	return nil
}

// Broadcast は全公開ユーザーへお知らせメールを送信する。
// notifierが未設定の場合は何もしない。
func (s *Service) Broadcast(ctx context.Context, actor *model.User, subject, body string) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if subject == "" || body == "" {
		return 0, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "件名と本文は必須です。",
			Category: "validation",
			Action:   "件名と本文を入力して再度お試しください。",
		}
	}
	if s.notifier == nil {
		return 0, nil
	}

	users, err := s.userRepo.ListPublic(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}

	if err := s.notifier.Broadcast(ctx, emails, subject, body); err != nil {
		return 0, fmt.Errorf("failed to broadcast: %w", err)
	}

	slog.Info("broadcast sent",
		slog.String("admin_id", actor.ID),
		slog.Int("recipients", len(emails)),
	)
	return len(emails), nil
}
