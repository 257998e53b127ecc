// Package feedback は完了スワップへの評価投稿と評価集計を提供する。
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/skillsync/internal/metrics"
	"github.com/hitoshi/skillsync/internal/model"
	"github.com/hitoshi/skillsync/internal/notify"
	"github.com/hitoshi/skillsync/internal/repository"
	"github.com/hitoshi/skillsync/internal/security"
)

// notifyTimeout はバックグラウンド通知送信のタイムアウト。
const notifyTimeout = 10 * time.Second

// Service はフィードバックのビジネスロジックを提供する。
// 投稿のたびに宛先ユーザーの評価平均と完了スワップ数を再計算する。
type Service struct {
	feedbackRepo repository.FeedbackRepository
	swapRepo     repository.SwapRequestRepository
	userRepo     repository.UserRepository
	sanitizer    security.TextSanitizerService
	notifier     notify.Notifier
	collector    metrics.MetricsCollector
}

// NewService はServiceを生成する。
// notifierとcollectorはnilを許容する。
func NewService(
	feedbackRepo repository.FeedbackRepository,
	swapRepo repository.SwapRequestRepository,
	userRepo repository.UserRepository,
	sanitizer security.TextSanitizerService,
	notifier notify.Notifier,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		feedbackRepo: feedbackRepo,
		swapRepo:     swapRepo,
		userRepo:     userRepo,
		sanitizer:    sanitizer,
		notifier:     notifier,
		collector:    collector,
	}
}

// Submit は完了したスワップに対するフィードバックを投稿する。
// 評価は1〜5の整数のみ許可され、宛先は相手側の当事者に固定される。
// 投稿後に宛先ユーザーのRating（丸め平均）とCompletedSwaps（受信件数）を再計算する。
func (s *Service) Submit(ctx context.Context, actor *model.User, swapID string, rating int, comment string) (*model.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, model.NewInvalidRatingError(rating)
	}

	req, err := s.swapRepo.FindByID(ctx, swapID)
	if err != nil {
		return nil, fmt.Errorf("failed to find swap request: %w", err)
	}
	if req == nil || !req.IsParticipant(actor.ID) {
		return nil, model.NewSwapNotFoundError(swapID)
	}
	if req.Status != model.SwapStatusCompleted {
		return nil, model.NewForbiddenError()
	}

	// 宛先は相手側の当事者
	toUserID := req.SenderID
	toUserName := req.SenderName
	if actor.ID == req.SenderID {
		toUserID = req.ReceiverID
		toUserName = req.ReceiverName
	}

	fb := &model.Feedback{
		ID:            uuid.New().String(),
		SwapRequestID: req.ID,
		FromUserID:    actor.ID,
		ToUserID:      toUserID,
		FromUserName:  actor.Name,
		ToUserName:    toUserName,
		Rating:        rating,
		Comment:       s.sanitizer.Sanitize(comment),
		CreatedAt:     time.Now(),
	}

	if err := s.feedbackRepo.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	if err := s.recomputeReputation(ctx, toUserID); err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.RecordFeedbackSubmitted(rating)
	}

	slog.Info("feedback submitted",
		slog.String("feedback_id", fb.ID),
		slog.String("swap_id", req.ID),
		slog.String("from_user_id", actor.ID),
		slog.String("to_user_id", toUserID),
		slog.Int("rating", rating),
	)

	// 通知はベストエフォート
	if s.notifier != nil {
		go s.notifyReceived(toUserID, fb)
	}

	return fb, nil
}

// ListForUser は指定ユーザー宛てのフィードバックを作成日時の降順で返す。
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*model.Feedback, error) {
	list, err := s.feedbackRepo.ListByToUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return list, nil
}

// recomputeReputation は宛先ユーザーの評価平均と完了スワップ数を再計算して保存する。
// Ratingは受信フィードバックの平均を小数第1位に丸めた値、
// CompletedSwapsは受信フィードバックの件数。
func (s *Service) recomputeReputation(ctx context.Context, userID string) error {
	start := time.Now()

	avg, count, err := s.feedbackRepo.AverageRatingByToUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to average rating: %w", err)
	}

	rating := model.RoundRating(avg)
	if err := s.userRepo.UpdateReputation(ctx, userID, rating, count); err != nil {
		return fmt.Errorf("failed to update reputation: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordRatingRecomputeLatency(time.Since(start))
	}
	return nil
}

// notifyReceived はフィードバック受信通知を送信する。
func (s *Service) notifyReceived(toUserID string, fb *model.Feedback) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	recipient, err := s.userRepo.FindByID(ctx, toUserID)
	if err != nil || recipient == nil {
		slog.Warn("failed to resolve feedback recipient",
			slog.String("feedback_id", fb.ID),
			slog.String("user_id", toUserID),
		)
		return
	}

	if err := s.notifier.FeedbackReceived(ctx, recipient.Email, fb); err != nil {
		slog.Warn("failed to send feedback notification",
			slog.String("feedback_id", fb.ID),
			slog.Any("error", err),
		)
	}
}
