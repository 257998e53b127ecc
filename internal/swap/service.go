// Package swap はスキル交換リクエストのライフサイクルを管理する。
package swap

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

// Service はスワップリクエストのビジネスロジックを提供する。
// 状態遷移の合法性と当事者の権限はこの層で強制される。
type Service struct {
	swapRepo  repository.SwapRequestRepository
	userRepo  repository.UserRepository
	sanitizer security.TextSanitizerService
	notifier  notify.Notifier
	collector metrics.MetricsCollector
}

// NewService はServiceを生成する。
// notifierとcollectorはnilを許容する（通知・計測なしで動作する）。
func NewService(
	swapRepo repository.SwapRequestRepository,
	userRepo repository.UserRepository,
	sanitizer security.TextSanitizerService,
	notifier notify.Notifier,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		swapRepo:  swapRepo,
		userRepo:  userRepo,
		sanitizer: sanitizer,
		notifier:  notifier,
		collector: collector,
	}
}

// Create は新しいスワップリクエストをpending状態で作成する。
// 自分自身へのリクエストはSELF_SWAP、受信者不在はUSER_NOT_FOUNDを返す。
// 当事者名は作成時点のスナップショットとして保存される。
func (s *Service) Create(ctx context.Context, sender *model.User, receiverID, skillOffered, skillRequested, message string) (*model.SwapRequest, error) {
	if receiverID == sender.ID {
		return nil, model.NewSelfSwapError()
	}

	receiver, err := s.userRepo.FindByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to find receiver: %w", err)
	}
	if receiver == nil {
		return nil, model.NewUserNotFoundError(receiverID)
	}

	now := time.Now()
	req := &model.SwapRequest{
		ID:             uuid.New().String(),
		SenderID:       sender.ID,
		ReceiverID:     receiver.ID,
		SenderName:     sender.Name,
		ReceiverName:   receiver.Name,
		SkillOffered:   s.sanitizer.Sanitize(skillOffered),
		SkillRequested: s.sanitizer.Sanitize(skillRequested),
		Message:        s.sanitizer.Sanitize(message),
		Status:         model.SwapStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.swapRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create swap request: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordSwapCreated()
	}

	slog.Info("swap request created",
		slog.String("swap_id", req.ID),
		slog.String("sender_id", sender.ID),
		slog.String("receiver_id", receiver.ID),
	)

	// 通知はベストエフォートで送信し、失敗しても作成処理は成功とする
	if s.notifier != nil {
		go s.notifyRequested(receiver.Email, req)
	}

	return req, nil
}

// Transition はスワップリクエストのステータスを遷移させる。
// 権限: accepted/rejectedへの遷移は受信者のみ、completedへの遷移は当事者双方が可能。
// 遷移表にない遷移はINVALID_TRANSITIONを返す。
func (s *Service) Transition(ctx context.Context, actor *model.User, swapID string, target model.SwapStatus) (*model.SwapRequest, error) {
	req, err := s.findForParticipant(ctx, actor, swapID)
	if err != nil {
		return nil, err
	}

	if !target.IsValid() || !req.Status.CanTransitionTo(target) {
		return nil, model.NewInvalidTransitionError(req.Status, target)
	}
	if !canTransition(actor, req, target) {
		return nil, model.NewForbiddenError()
	}

	if err := s.swapRepo.UpdateStatus(ctx, req.ID, target); err != nil {
		return nil, fmt.Errorf("failed to update swap status: %w", err)
	}
	req.Status = target
	req.UpdatedAt = time.Now()

	if s.collector != nil {
		s.collector.RecordSwapTransition(string(target))
	}

	slog.Info("swap request transitioned",
		slog.String("swap_id", req.ID),
		slog.String("status", string(target)),
		slog.String("actor_id", actor.ID),
	)

	// 相手側の当事者へ通知する
	if s.notifier != nil {
		counterpartID := req.SenderID
		if actor.ID == req.SenderID {
			counterpartID = req.ReceiverID
		}
		go s.notifyStatusChanged(counterpartID, req)
	}

	return req, nil
}

// canTransition は遷移に対する当事者の権限を判定する。
func canTransition(actor *model.User, req *model.SwapRequest, target model.SwapStatus) bool {
	switch target {
	case model.SwapStatusAccepted, model.SwapStatusRejected:
		// 応答は受信者のみ
		return actor.ID == req.ReceiverID
	case model.SwapStatusCompleted:
		// 完了は当事者双方が宣言できる
		return req.IsParticipant(actor.ID)
	}
	return false
}

// Delete はスワップリクエストを削除する。
// 削除できるのはpendingのリクエストの送信者、またはrejectedのリクエストの当事者のみ。
func (s *Service) Delete(ctx context.Context, actor *model.User, swapID string) error {
	req, err := s.findForParticipant(ctx, actor, swapID)
	if err != nil {
		return err
	}

	allowed := false
	switch req.Status {
	case model.SwapStatusPending:
		allowed = actor.ID == req.SenderID
	case model.SwapStatusRejected:
		allowed = req.IsParticipant(actor.ID)
	}
	if !allowed {
		return model.NewForbiddenError()
	}

	if err := s.swapRepo.Delete(ctx, req.ID); err != nil {
		return fmt.Errorf("failed to delete swap request: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordSwapDeleted()
	}

	slog.Info("swap request deleted",
		slog.String("swap_id", req.ID),
		slog.String("actor_id", actor.ID),
	)
	return nil
}

// GetByID はスワップリクエストを取得する。
// 当事者と管理者以外には存在を隠しSWAP_NOT_FOUNDを返す。
func (s *Service) GetByID(ctx context.Context, actor *model.User, swapID string) (*model.SwapRequest, error) {
	req, err := s.swapRepo.FindByID(ctx, swapID)
	if err != nil {
		return nil, fmt.Errorf("failed to find swap request: %w", err)
	}
	if req == nil {
		return nil, model.NewSwapNotFoundError(swapID)
	}
	if !req.IsParticipant(actor.ID) && !actor.IsAdmin {
		return nil, model.NewSwapNotFoundError(swapID)
	}
	return req, nil
}

// ListForUser は指定ユーザーが当事者である全リクエストを作成日時の降順で返す。
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*model.SwapRequest, error) {
	reqs, err := s.swapRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list swap requests: %w", err)
	}
	return reqs, nil
}

// findForParticipant はリクエストを取得し当事者であることを確認する。
// 非当事者にはSWAP_NOT_FOUNDを返し存在を隠す。
func (s *Service) findForParticipant(ctx context.Context, actor *model.User, swapID string) (*model.SwapRequest, error) {
	req, err := s.swapRepo.FindByID(ctx, swapID)
	if err != nil {
		return nil, fmt.Errorf("failed to find swap request: %w", err)
	}
	if req == nil {
		return nil, model.NewSwapNotFoundError(swapID)
	}
	if !req.IsParticipant(actor.ID) {
		return nil, model.NewSwapNotFoundError(swapID)
	}
	return req, nil
}

// notifyRequested はリクエスト受信通知を送信する。
func (s *Service) notifyRequested(receiverEmail string, req *model.SwapRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := s.notifier.SwapRequested(ctx, receiverEmail, req); err != nil {
		slog.Warn("failed to send swap requested notification",
			slog.String("swap_id", req.ID),
			slog.Any("error", err),
		)
	}
}

// notifyStatusChanged はステータス変更通知を相手側の当事者へ送信する。
func (s *Service) notifyStatusChanged(counterpartID string, req *model.SwapRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	counterpart, err := s.userRepo.FindByID(ctx, counterpartID)
	if err != nil || counterpart == nil {
		slog.Warn("failed to resolve notification recipient",
			slog.String("swap_id", req.ID),
			slog.String("user_id", counterpartID),
		)
		return
	}

	if err := s.notifier.SwapStatusChanged(ctx, counterpart.Email, req); err != nil {
		slog.Warn("failed to send status change notification",
			slog.String("swap_id", req.ID),
			slog.Any("error", err),
		)
	}
}
