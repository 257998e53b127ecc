package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/skillsync/internal/model"
)

// mockFeedbackService はFeedbackServiceInterfaceのモック。
type mockFeedbackService struct {
	submitFn      func(ctx context.Context, actor *model.User, swapID string, rating int, comment string) (*model.Feedback, error)
	listForUserFn func(ctx context.Context, userID string) ([]*model.Feedback, error)
}

func (m *mockFeedbackService) Submit(ctx context.Context, actor *model.User, swapID string, rating int, comment string) (*model.Feedback, error) {
	return m.submitFn(ctx, actor, swapID, rating, comment)
}

func (m *mockFeedbackService) ListForUser(ctx context.Context, userID string) ([]*model.Feedback, error) {
	return m.listForUserFn(ctx, userID)
}

func testFeedback() *model.Feedback {
	return &model.Feedback{
		ID:            "fb-1",
		SwapRequestID: "swap-1",
		FromUserID:    "user-1",
		ToUserID:      "user-2",
		FromUserName:  "山田太郎",
		ToUserName:    "鈴木花子",
		Rating:        5,
		Comment:       "とても丁寧に教えてもらいました",
		CreatedAt:     time.Now(),
	}
}

func TestFeedbackHandler_SubmitFeedback_Returns201(t *testing.T) {
	user := testUser()

	var gotSwapID string
	var gotRating int
	svc := &mockFeedbackService{
		submitFn: func(ctx context.Context, actor *model.User, swapID string, rating int, comment string) (*model.Feedback, error) {
			gotSwapID, gotRating = swapID, rating
			return testFeedback(), nil
		},
	}
	h := NewFeedbackHandler(svc, finderFor(user))

	body := `{"swap_request_id":"swap-1","rating":5,"comment":"とても丁寧に教えてもらいました"}`
	req := authedRequest(http.MethodPost, "/api/feedback", body, user.ID)
	w := httptest.NewRecorder()

	h.SubmitFeedback(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
	if gotSwapID != "swap-1" || gotRating != 5 {
		t.Errorf("swapID = %q, rating = %d", gotSwapID, gotRating)
	}

	var got feedbackResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ToUserID != "user-2" {
		t.Errorf("to_user_id = %q, want %q", got.ToUserID, "user-2")
	}
}

func TestFeedbackHandler_SubmitFeedback_InvalidRatingReturns400(t *testing.T) {
	user := testUser()
	svc := &mockFeedbackService{
		submitFn: func(ctx context.Context, actor *model.User, swapID string, rating int, comment string) (*model.Feedback, error) {
			return nil, model.NewInvalidRatingError(rating)
		},
	}
	h := NewFeedbackHandler(svc, finderFor(user))

	body := `{"swap_request_id":"swap-1","rating":6}`
	req := authedRequest(http.MethodPost, "/api/feedback", body, user.ID)
	w := httptest.NewRecorder()

	h.SubmitFeedback(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestFeedbackHandler_SubmitFeedback_IncompleteSwapReturns403(t *testing.T) {
	user := testUser()
	svc := &mockFeedbackService{
		submitFn: func(ctx context.Context, actor *model.User, swapID string, rating int, comment string) (*model.Feedback, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewFeedbackHandler(svc, finderFor(user))

	body := `{"swap_request_id":"swap-1","rating":4}`
	req := authedRequest(http.MethodPost, "/api/feedback", body, user.ID)
	w := httptest.NewRecorder()

	h.SubmitFeedback(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestFeedbackHandler_ListUserFeedback(t *testing.T) {
	user := testUser()

	var gotUserID string
	svc := &mockFeedbackService{
		listForUserFn: func(ctx context.Context, userID string) ([]*model.Feedback, error) {
			gotUserID = userID
			return []*model.Feedback{testFeedback()}, nil
		},
	}
	h := NewFeedbackHandler(svc, finderFor(user))

	req := withURLParam(authedRequest(http.MethodGet, "/api/users/user-2/feedback", "", user.ID), "id", "user-2")
	w := httptest.NewRecorder()

	h.ListUserFeedback(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if gotUserID != "user-2" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-2")
	}

	var body struct {
		Feedback []feedbackResponse `json:"feedback"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Feedback) != 1 {
		t.Errorf("len(feedback) = %d, want 1", len(body.Feedback))
	}
}
