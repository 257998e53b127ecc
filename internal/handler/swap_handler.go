package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/skillsync/internal/middleware"
	"github.com/hitoshi/skillsync/internal/model"
)

// SwapServiceInterface はスワップハンドラーが必要とするサービスインターフェース。
type SwapServiceInterface interface {
	// Create は新しいスワップリクエストを作成する。
	Create(ctx context.Context, sender *model.User, receiverID, skillOffered, skillRequested, message string) (*model.SwapRequest, error)
	// Transition はスワップリクエストの状態を遷移させる。
	Transition(ctx context.Context, actor *model.User, swapID string, target model.SwapStatus) (*model.SwapRequest, error)
	// Delete はスワップリクエストを削除する。
	Delete(ctx context.Context, actor *model.User, swapID string) error
	// GetByID はスワップリクエストを取得する。当事者と管理者のみ閲覧できる。
	GetByID(ctx context.Context, actor *model.User, swapID string) (*model.SwapRequest, error)
	// ListForUser はユーザーが当事者であるスワップリクエストを新しい順で返す。
	ListForUser(ctx context.Context, userID string) ([]*model.SwapRequest, error)
}

// UserFinder はリクエスト実行者の解決に使うインターフェース。
// repository.UserRepositoryが満たす。
type UserFinder interface {
	// FindByID はIDでユーザーを検索する。存在しない場合は(nil, nil)を返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// SwapHandler はスワップリクエスト管理のHTTPハンドラー。
type SwapHandler struct {
	service SwapServiceInterface
	users   UserFinder
}

// NewSwapHandler はSwapHandlerを生成する。
func NewSwapHandler(service SwapServiceInterface, users UserFinder) *SwapHandler {
	return &SwapHandler{
		service: service,
		users:   users,
	}
}

// createSwapRequest はスワップ作成リクエストのボディ。
type createSwapRequest struct {
	ReceiverID     string `json:"receiver_id"`
	SkillOffered   string `json:"skill_offered"`
	SkillRequested string `json:"skill_requested"`
	Message        string `json:"message"`
}

// updateSwapStatusRequest はスワップ状態更新リクエストのボディ。
type updateSwapStatusRequest struct {
	Status string `json:"status"`
}

// swapResponse はスワップリクエストのAPIレスポンス。
type swapResponse struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	SenderName     string    `json:"sender_name"`
	ReceiverName   string    `json:"receiver_name"`
	SkillOffered   string    `json:"skill_offered"`
	SkillRequested string    `json:"skill_requested"`
	Message        string    `json:"message"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreateSwap はスワップリクエストの作成を処理する。
// POST /api/swaps
func (h *SwapHandler) CreateSwap(w http.ResponseWriter, r *http.Request) {
	sender, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	var req createSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	swap, err := h.service.Create(r.Context(), sender, req.ReceiverID, req.SkillOffered, req.SkillRequested, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toSwapResponse(swap))
}

// ListSwaps は自分が当事者であるスワップリクエストの一覧を返す。
// GET /api/swaps
func (h *SwapHandler) ListSwaps(w http.ResponseWriter, r *http.Request) {
	user, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	swaps, err := h.service.ListForUser(r.Context(), user.ID)
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

// GetSwap はスワップリクエストの詳細を取得する。
// GET /api/swaps/:id
func (h *SwapHandler) GetSwap(w http.ResponseWriter, r *http.Request) {
	user, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	swapID := chi.URLParam(r, "id")

	swap, err := h.service.GetByID(r.Context(), user, swapID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSwapResponse(swap))
}

// UpdateSwapStatus はスワップリクエストの状態遷移を処理する。
// PUT /api/swaps/:id/status
func (h *SwapHandler) UpdateSwapStatus(w http.ResponseWriter, r *http.Request) {
	user, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	swapID := chi.URLParam(r, "id")

	var req updateSwapStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	swap, err := h.service.Transition(r.Context(), user, swapID, model.SwapStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSwapResponse(swap))
}

// DeleteSwap はスワップリクエストの削除を処理する。
// DELETE /api/swaps/:id
func (h *SwapHandler) DeleteSwap(w http.ResponseWriter, r *http.Request) {
	user, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	swapID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), user, swapID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toSwapResponse はmodel.SwapRequestからAPIレスポンスに変換する。
func toSwapResponse(swap *model.SwapRequest) swapResponse {
	return swapResponse{
		ID:             swap.ID,
		SenderID:       swap.SenderID,
		ReceiverID:     swap.ReceiverID,
		SenderName:     swap.SenderName,
		ReceiverName:   swap.ReceiverName,
		SkillOffered:   swap.SkillOffered,
		SkillRequested: swap.SkillRequested,
		Message:        swap.Message,
		Status:         string(swap.Status),
		CreatedAt:      swap.CreatedAt,
		UpdatedAt:      swap.UpdatedAt,
	}
}

// requireUser はセッションミドルウェアが設定したユーザーIDから実行者を解決する。
// 未認証またはユーザーが存在しない場合はUNAUTHORIZEDを返す。
func requireUser(r *http.Request, users UserFinder) (*model.User, *model.APIError) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := users.FindByID(r.Context(), userID)
	if err != nil || user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

// invalidRequestError はリクエストボディ解析失敗のAPIErrorを返す。
func invalidRequestError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEmailExists:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeUserNotFound, model.ErrCodeSwapNotFound, model.ErrCodeFeedbackNotFound:
		return http.StatusNotFound
	case model.ErrCodeSelfSwap, model.ErrCodeInvalidRating, model.ErrCodeInvalidPhotoURL, "INVALID_REQUEST":
		return http.StatusBadRequest
	case model.ErrCodeInvalidTransition:
		return http.StatusConflict
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
