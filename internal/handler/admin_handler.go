package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/skillsync/internal/admin"
	"github.com/hitoshi/skillsync/internal/model"
)

// AdminServiceInterface は管理ハンドラーが必要とするサービスインターフェース。
// 全操作は管理者権限を要求する。
type AdminServiceInterface interface {
	// GetStats はプラットフォームの集計統計を返す。
	GetStats(ctx context.Context, actor *model.User) (*admin.Stats, error)
	// ListSwaps は全スワップリクエストを返す。
	ListSwaps(ctx context.Context, actor *model.User) ([]*model.SwapRequest, error)
	// DeleteUser はユーザーと関連データを削除する。
	DeleteUser(ctx context.Context, actor *model.User, userID string) error
	// DeleteSwap はスワップリクエストを削除する。
	DeleteSwap(ctx context.Context, actor *model.User, swapID string) error
	// DeleteFeedback はフィードバックを削除する。
	DeleteFeedback(ctx context.Context, actor *model.User, feedbackID string) error
	// Broadcast は全公開ユーザーにお知らせメールを送信し、送信件数を返す。
	Broadcast(ctx context.Context, actor *model.User, subject, body string) (int, error)
}

// AdminHandler は管理操作のHTTPハンドラー。
type AdminHandler struct {
	service AdminServiceInterface
	users   UserFinder
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface, users UserFinder) *AdminHandler {
	return &AdminHandler{
		service: service,
		users:   users,
	}
}

// broadcastRequest はお知らせ送信リクエストのボディ。
type broadcastRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// GetStats はプラットフォーム統計を返す。
// GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	actor, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	stats, err := h.service.GetStats(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// ListAllSwaps は全スワップリクエストの一覧を返す。
// GET /api/admin/swaps
func (h *AdminHandler) ListAllSwaps(w http.ResponseWriter, r *http.Request) {
	actor, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	swaps, err := h.service.ListSwaps(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]swapResponse, len(swaps))
	for i, s := range swaps {
		results[i] = toSwapResponse(s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"swaps": results})
}

// DeleteUser はユーザーと関連データを削除する。
// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	userID := chi.URLParam(r, "id")

	if err := h.service.DeleteUser(r.Context(), actor, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteSwap はスワップリクエストを削除する。
// DELETE /api/admin/swaps/:id
func (h *AdminHandler) DeleteSwap(w http.ResponseWriter, r *http.Request) {
	actor, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	swapID := chi.URLParam(r, "id")

	if err := h.service.DeleteSwap(r.Context(), actor, swapID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteFeedback はフィードバックを削除する。
// DELETE /api/admin/feedback/:id
func (h *AdminHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	actor, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	feedbackID := chi.URLParam(r, "id")

	if err := h.service.DeleteFeedback(r.Context(), actor, feedbackID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Broadcast は全公開ユーザーへのお知らせメール送信を処理する。
// POST /api/admin/broadcast
func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	actor, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	sent, err := h.service.Broadcast(r.Context(), actor, req.Subject, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"sent": sent})
}
