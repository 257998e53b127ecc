package swap

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hitoshi/skillsync/internal/model"
	"github.com/hitoshi/skillsync/internal/notify"
	"github.com/hitoshi/skillsync/internal/repository"
	"github.com/hitoshi/skillsync/internal/security"
)

// --- モック定義 ---

type mockNotifier struct {
	mu            sync.Mutex
	requested     []*model.SwapRequest
	statusChanged []*model.SwapRequest
	done          chan struct{}
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{done: make(chan struct{}, 8)}
}

func (m *mockNotifier) SwapRequested(_ context.Context, _ string, req *model.SwapRequest) error {
	m.mu.Lock()
	m.requested = append(m.requested, req)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

func (m *mockNotifier) SwapStatusChanged(_ context.Context, _ string, req *model.SwapRequest) error {
	m.mu.Lock()
	m.statusChanged = append(m.statusChanged, req)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

func (m *mockNotifier) FeedbackReceived(_ context.Context, _ string, _ *model.Feedback) error {
	return nil
}

func (m *mockNotifier) Broadcast(_ context.Context, _ []string, _, _ string) error {
	return nil
}

var _ notify.Notifier = (*mockNotifier)(nil)

// --- テストヘルパー ---

type fixture struct {
	svc      *Service
	swapRepo *repository.MemorySwapRepo
	notifier *mockNotifier
	sender   *model.User
	receiver *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	userRepo := repository.NewMemoryUserRepo()
	sender := &model.User{ID: "sender", Email: "sender@example.com", Name: "Sender"}
	receiver := &model.User{ID: "receiver", Email: "receiver@example.com", Name: "Receiver"}
	for _, u := range []*model.User{sender, receiver} {
		if err := userRepo.Create(ctx, u); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	swapRepo := repository.NewMemorySwapRepo()
	notifier := newMockNotifier()
	svc := NewService(swapRepo, userRepo, security.NewTextSanitizer(), notifier, nil)

	return &fixture{
		svc:      svc,
		swapRepo: swapRepo,
		notifier: notifier,
		sender:   sender,
		receiver: receiver,
	}
}

func (f *fixture) create(t *testing.T) *model.SwapRequest {
	t.Helper()
	req, err := f.svc.Create(context.Background(), f.sender, f.receiver.ID, "Photoshop", "Excel", "よろしく")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	<-f.notifier.done
	return req
}

// --- テスト ---

// リクエスト作成でpending状態と名前スナップショットが設定されることを検証
func TestCreate_SetsPendingAndSnapshots(t *testing.T) {
	f := newFixture(t)

	req := f.create(t)
	if req.Status != model.SwapStatusPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if req.SenderName != "Sender" || req.ReceiverName != "Receiver" {
		t.Errorf("name snapshots: %q, %q", req.SenderName, req.ReceiverName)
	}
	if req.SkillOffered != "Photoshop" || req.SkillRequested != "Excel" {
		t.Errorf("skills: %q, %q", req.SkillOffered, req.SkillRequested)
	}
}

// 作成時に受信者へ通知されることを検証
func TestCreate_NotifiesReceiver(t *testing.T) {
	f := newFixture(t)

	req := f.create(t)

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	if len(f.notifier.requested) != 1 || f.notifier.requested[0].ID != req.ID {
		t.Errorf("unexpected notifications: %+v", f.notifier.requested)
	}
}

// メッセージのHTMLタグがサニタイズされることを検証
func TestCreate_SanitizesMessage(t *testing.T) {
	f := newFixture(t)

	req, err := f.svc.Create(context.Background(), f.sender, f.receiver.ID,
		"Photoshop", "Excel", `<script>alert(1)</script>こんにちは`)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	<-f.notifier.done
	if req.Message != "こんにちは" {
		t.Errorf("message = %q", req.Message)
	}
}

// 自分自身へのリクエストがSELF_SWAPになることを検証
func TestCreate_SelfSwap(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.sender, f.sender.ID, "A", "B", "")
	apiErr := &model.APIError{}
	if !errors.As(err, &apiErr) || apiErr.Code != "SELF_SWAP" {
		t.Errorf("unexpected error: %v", err)
	}
}

// 存在しない受信者がUSER_NOT_FOUNDになることを検証
func TestCreate_ReceiverNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.sender, "missing", "A", "B", "")
	apiErr := &model.APIError{}
	if !errors.As(err, &apiErr) || apiErr.Code != "USER_NOT_FOUND" {
		t.Errorf("unexpected error: %v", err)
	}
}

// 受信者による承諾を検証
func TestTransition_ReceiverAccepts(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	updated, err := f.svc.Transition(context.Background(), f.receiver, req.ID, model.SwapStatusAccepted)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if updated.Status != model.SwapStatusAccepted {
		t.Errorf("status = %q", updated.Status)
	}
	<-f.notifier.done

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	if len(f.notifier.statusChanged) != 1 {
		t.Errorf("expected 1 status notification, got %d", len(f.notifier.statusChanged))
	}
}

// 送信者による承諾がFORBIDDENになることを検証
func TestTransition_SenderCannotAccept(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	_, err := f.svc.Transition(context.Background(), f.sender, req.ID, model.SwapStatusAccepted)
	apiErr := &model.APIError{}
	if !errors.As(err, &apiErr) || apiErr.Code != "FORBIDDEN" {
		t.Errorf("unexpected error: %v", err)
	}
}

// 受信者による拒否を検証
func TestTransition_ReceiverRejects(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	updated, err := f.svc.Transition(context.Background(), f.receiver, req.ID, model.SwapStatusRejected)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if updated.Status != model.SwapStatusRejected {
		t.Errorf("status = %q", updated.Status)
	}
	<-f.notifier.done
}

// 承諾済みリクエストを双方の当事者が完了にできることを検証
func TestTransition_ParticipantsComplete(t *testing.T) {
	for _, actor := range []string{"sender", "receiver"} {
		t.Run(actor, func(t *testing.T) {
			f := newFixture(t)
			req := f.create(t)

			if _, err := f.svc.Transition(context.Background(), f.receiver, req.ID, model.SwapStatusAccepted); err != nil {
				t.Fatalf("accept failed: %v", err)
			}
			<-f.notifier.done

			who := f.sender
			if actor == "receiver" {
				who = f.receiver
			}
			updated, err := f.svc.Transition(context.Background(), who, req.ID, model.SwapStatusCompleted)
			if err != nil {
				t.Fatalf("complete failed: %v", err)
			}
			if updated.Status != model.SwapStatusCompleted {
				t.Errorf("status = %q", updated.Status)
			}
			<-f.notifier.done
		})
	}
}

// 遷移表にない遷移がINVALID_TRANSITIONになることを検証
func TestTransition_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   model.SwapStatus
		target model.SwapStatus
	}{
		{"pendingからcompleted", model.SwapStatusPending, model.SwapStatusCompleted},
		{"rejectedからaccepted", model.SwapStatusRejected, model.SwapStatusAccepted},
		{"completedからpending", model.SwapStatusCompleted, model.SwapStatusPending},
		{"acceptedからrejected", model.SwapStatusAccepted, model.SwapStatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.create(t)
			if err := f.swapRepo.UpdateStatus(context.Background(), req.ID, tt.from); err != nil {
				t.Fatalf("UpdateStatus failed: %v", err)
			}

			_, err := f.svc.Transition(context.Background(), f.receiver, req.ID, tt.target)
			apiErr := &model.APIError{}
			if !errors.As(err, &apiErr) || apiErr.Code != "INVALID_TRANSITION" {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// 非当事者にはSWAP_NOT_FOUNDで存在を隠すことを検証
func TestTransition_NonParticipant(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	stranger := &model.User{ID: "stranger"}
	_, err := f.svc.Transition(context.Background(), stranger, req.ID, model.SwapStatusAccepted)
	apiErr := &model.APIError{}
	if !errors.As(err, &apiErr) || apiErr.Code != "SWAP_NOT_FOUND" {
		t.Errorf("unexpected error: %v", err)
	}
}

// 送信者がpendingリクエストを削除できることを検証
func TestDelete_SenderDeletesPending(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	if err := f.svc.Delete(context.Background(), f.sender, req.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	found, _ := f.swapRepo.FindByID(context.Background(), req.ID)
	if found != nil {
		t.Error("request should be deleted")
	}
}

// 受信者はpendingリクエストを削除できないことを検証
func TestDelete_ReceiverCannotDeletePending(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	err := f.svc.Delete(context.Background(), f.receiver, req.ID)
	apiErr := &model.APIError{}
	if !errors.As(err, &apiErr) || apiErr.Code != "FORBIDDEN" {
		t.Errorf("unexpected error: %v", err)
	}
}

// rejectedリクエストは双方の当事者が削除できることを検証
func TestDelete_ParticipantsDeleteRejected(t *testing.T) {
	for _, actor := range []string{"sender", "receiver"} {
		t.Run(actor, func(t *testing.T) {
			f := newFixture(t)
			req := f.create(t)
			if _, err := f.svc.Transition(context.Background(), f.receiver, req.ID, model.SwapStatusRejected); err != nil {
				t.Fatalf("reject failed: %v", err)
			}
			<-f.notifier.done

			who := f.sender
			if actor == "receiver" {
				who = f.receiver
			}
			if err := f.svc.Delete(context.Background(), who, req.ID); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
		})
	}
}

// accepted/completedのリクエストは削除できないことを検証
func TestDelete_ActiveRequestForbidden(t *testing.T) {
	for _, status := range []model.SwapStatus{model.SwapStatusAccepted, model.SwapStatusCompleted} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			req := f.create(t)
			if err := f.swapRepo.UpdateStatus(context.Background(), req.ID, status); err != nil {
				t.Fatalf("UpdateStatus failed: %v", err)
			}

			err := f.svc.Delete(context.Background(), f.sender, req.ID)
			apiErr := &model.APIError{}
			if !errors.As(err, &apiErr) || apiErr.Code != "FORBIDDEN" {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// GetByIDが当事者と管理者にのみリクエストを返すことを検証
func TestGetByID_Visibility(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.GetByID(ctx, f.sender, req.ID); err != nil {
		t.Errorf("sender GetByID failed: %v", err)
	}
	if _, err := f.svc.GetByID(ctx, &model.User{ID: "admin", IsAdmin: true}, req.ID); err != nil {
		t.Errorf("admin GetByID failed: %v", err)
	}

	_, err := f.svc.GetByID(ctx, &model.User{ID: "stranger"}, req.ID)
	apiErr := &model.APIError{}
	if !errors.As(err, &apiErr) || apiErr.Code != "SWAP_NOT_FOUND" {
		t.Errorf("unexpected error: %v", err)
	}
}

// ListForUserが当事者のリクエストのみを返すことを検証
func TestListForUser(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)

	list, err := f.svc.ListForUser(context.Background(), f.sender.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("len = %d, want 2", len(list))
	}

	list, err = f.svc.ListForUser(context.Background(), "stranger")
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len = %d, want 0", len(list))
	}
}
