package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/skillsync/internal/model"
)

// FeedbackServiceInterface はフィードバックハンドラーが必要とするサービスインターフェース。
type FeedbackServiceInterface interface {
	// Submit は完了したスワップに対するフィードバックを登録し、
	// 受信者の評価平均を再計算する。
	Submit(ctx context.Context, actor *model.User, swapID string, rating int, comment string) (*model.Feedback, error)
	// ListForUser は指定ユーザーが受け取ったフィードバックを新しい順で返す。
	ListForUser(ctx context.Context, userID string) ([]*model.Feedback, error)
}

// FeedbackHandler はフィードバック管理のHTTPハンドラー。
type FeedbackHandler struct {
	service FeedbackServiceInterface
	users   UserFinder
}

// NewFeedbackHandler はFeedbackHandlerを生成する。
func NewFeedbackHandler(service FeedbackServiceInterface, users UserFinder) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		users:   users,
	}
}

// submitFeedbackRequest はフィードバック登録リクエストのボディ。
type submitFeedbackRequest struct {
	SwapRequestID string `json:"swap_request_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

// feedbackResponse はフィードバックのAPIレスポンス。
type feedbackResponse struct {
	ID            string    `json:"id"`
	SwapRequestID string    `json:"swap_request_id"`
	FromUserID    string    `json:"from_user_id"`
	ToUserID      string    `json:"to_user_id"`
	FromUserName  string    `json:"from_user_name"`
	ToUserName    string    `json:"to_user_name"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmitFeedback はフィードバックの登録を処理する。
// POST /api/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	user, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	var req submitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	fb, err := h.service.Submit(r.Context(), user, req.SwapRequestID, req.Rating, req.Comment)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toFeedbackResponse(fb))
}

// ListUserFeedback は指定ユーザーが受け取ったフィードバックの一覧を返す。
// GET /api/users/:id/feedback
func (h *FeedbackHandler) ListUserFeedback(w http.ResponseWriter, r *http.Request) {
	if _, apiErr := requireUser(r, h.users); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	userID := chi.URLParam(r, "id")

	feedbacks, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]feedbackResponse, len(feedbacks))
	for i, fb := range feedbacks {
		results[i] = toFeedbackResponse(fb)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"feedback": results})
}

// toFeedbackResponse はmodel.FeedbackからAPIレスポンスに変換する。
func toFeedbackResponse(fb *model.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:            fb.ID,
		SwapRequestID: fb.SwapRequestID,
		FromUserID:    fb.FromUserID,
		ToUserID:      fb.ToUserID,
		FromUserName:  fb.FromUserName,
		ToUserName:    fb.ToUserName,
		Rating:        fb.Rating,
		Comment:       fb.Comment,
		CreatedAt:     fb.CreatedAt,
	}
}
