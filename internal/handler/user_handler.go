package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/skillsync/internal/model"
)

// DirectoryServiceInterface は公開プロフィール閲覧のサービスインターフェース。
type DirectoryServiceInterface interface {
	// GetByID はプロフィールを取得する。非公開プロフィールは本人と管理者のみ閲覧できる。
	GetByID(ctx context.Context, userID string, viewer *model.User) (*model.User, error)
	// Search は公開プロフィールを検索語とスキルで絞り込む。
	Search(ctx context.Context, viewerID, term, skill string) ([]*model.User, error)
	// ListSkillsOffered は公開ユーザーが提供している全スキルの一覧を返す。
	ListSkillsOffered(ctx context.Context) ([]string, error)
}

// ProfileServiceInterface はプロフィール更新のサービスインターフェース。
type ProfileServiceInterface interface {
	// UpdateProfile はプロフィールを部分更新する。nilフィールドは変更しない。
	UpdateProfile(ctx context.Context, userID string, update *model.ProfileUpdate) (*model.User, error)
}

// UserHandler はプロフィール閲覧・更新のHTTPハンドラー。
type UserHandler struct {
	directory DirectoryServiceInterface
	profile   ProfileServiceInterface
	users     UserFinder
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(directory DirectoryServiceInterface, profile ProfileServiceInterface, users UserFinder) *UserHandler {
	return &UserHandler{
		directory: directory,
		profile:   profile,
		users:     users,
	}
}

// userResponse はユーザープロフィールのAPIレスポンス。
// EmailとIsAdminは本人・管理者向けビューでのみ含める。
type userResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email,omitempty"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	SkillsOffered  []string  `json:"skills_offered"`
	SkillsWanted   []string  `json:"skills_wanted"`
	Availability   []string  `json:"availability"`
	IsPublic       bool      `json:"is_public"`
	IsAdmin        bool      `json:"is_admin,omitempty"`
	HasPhoto       bool      `json:"has_photo"`
	JoinDate       time.Time `json:"join_date"`
	Rating         float64   `json:"rating"`
	CompletedSwaps int       `json:"completed_swaps"`
}

// updateProfileRequest はプロフィール部分更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateProfileRequest struct {
	Name          *string   `json:"name"`
	Location      *string   `json:"location"`
	SkillsOffered *[]string `json:"skills_offered"`
	SkillsWanted  *[]string `json:"skills_wanted"`
	Availability  *[]string `json:"availability"`
	IsPublic      *bool     `json:"is_public"`
	PhotoURL      *string   `json:"photo_url"`
}

// ListUsers は公開プロフィールの一覧・検索を処理する。
// GET /api/users?term=xxx&skill=yyy
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	viewer, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	term := r.URL.Query().Get("term")
	skill := r.URL.Query().Get("skill")

	users, err := h.directory.Search(r.Context(), viewer.ID, term, skill)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]userResponse, len(users))
	for i, u := range users {
		results[i] = toUserResponse(u, false)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"users": results})
}

// ListSkills は公開ユーザーが提供している全スキルの一覧を返す。
// GET /api/users/skills
func (h *UserHandler) ListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.directory.ListSkillsOffered(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"skills": skills})
}

// GetUser はプロフィール詳細を取得する。
// GET /api/users/:id
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	viewer, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	userID := chi.URLParam(r, "id")

	user, err := h.directory.GetByID(r.Context(), userID, viewer)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	includePrivate := viewer.ID == user.ID || viewer.IsAdmin

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user, includePrivate))
}

// GetUserPhoto はプロフィール写真のバイナリを返す。
// GET /api/users/:id/photo
func (h *UserHandler) GetUserPhoto(w http.ResponseWriter, r *http.Request) {
	viewer, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	userID := chi.URLParam(r, "id")

	user, err := h.directory.GetByID(r.Context(), userID, viewer)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if len(user.PhotoData) == 0 {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError(userID))
		return
	}

	w.Header().Set("Content-Type", user.PhotoMime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(user.PhotoData)
}

// UpdateProfile は自分のプロフィールを部分更新する。
// PATCH /api/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, apiErr := requireUser(r, h.users)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	updated, err := h.profile.UpdateProfile(r.Context(), user.ID, &model.ProfileUpdate{
		Name:          req.Name,
		Location:      req.Location,
		SkillsOffered: req.SkillsOffered,
		SkillsWanted:  req.SkillsWanted,
		Availability:  req.Availability,
		IsPublic:      req.IsPublic,
		PhotoURL:      req.PhotoURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(updated, true))
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
// includePrivateがfalseの場合、EmailとIsAdminを含めない。
func toUserResponse(user *model.User, includePrivate bool) userResponse {
	resp := userResponse{
		ID:             user.ID,
		Name:           user.Name,
		Location:       user.Location,
		SkillsOffered:  user.SkillsOffered,
		SkillsWanted:   user.SkillsWanted,
		Availability:   user.Availability,
		IsPublic:       user.IsPublic,
		HasPhoto:       len(user.PhotoData) > 0,
		JoinDate:       user.JoinDate,
		Rating:         user.Rating,
		CompletedSwaps: user.CompletedSwaps,
	}
	if includePrivate {
		resp.Email = user.Email
		resp.IsAdmin = user.IsAdmin
	}
	return resp
}
