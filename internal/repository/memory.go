package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/skillsync/internal/model"
)

// MemoryUserRepo はメモリ上のユーザーリポジトリ。テストとデモ用途。
// 挿入順を保持し、返却時はコピーを返す。
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users []*model.User
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.SkillsOffered = slices.Clone(u.SkillsOffered)
	c.SkillsWanted = slices.Clone(u.SkillsWanted)
	c.Availability = slices.Clone(u.Availability)
	c.PhotoData = slices.Clone(u.PhotoData)
	return &c
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

// Create はユーザーを作成する。
func (r *MemoryUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return model.NewEmailExistsError(user.Email)
		}
	}
	r.users = append(r.users, cloneUser(user))
	return nil
}

// Update はユーザーの全フィールドを上書き更新する。
func (r *MemoryUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == user.ID {
			r.users[i] = cloneUser(user)
			return nil
		}
	}
	return model.NewUserNotFoundError(user.ID)
}

// UpdateReputation は評価集計の派生値のみを更新する。
func (r *MemoryUserRepo) UpdateReputation(_ context.Context, id string, rating float64, completedSwaps int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			u.Rating = rating
			u.CompletedSwaps = completedSwaps
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return model.NewUserNotFoundError(id)
}

// ListPublic は公開プロフィールのユーザーを作成順で返す。
func (r *MemoryUserRepo) ListPublic(_ context.Context, excludeID string) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []*model.User
	for _, u := range r.users {
		if u.IsPublic && u.ID != excludeID {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

// DistinctSkillsOffered は全公開ユーザーの提供スキルを重複なしソート済みで返す。
func (r *MemoryUserRepo) DistinctSkillsOffered(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	var skills []string
	for _, u := range r.users {
		if !u.IsPublic {
			continue
		}
		for _, s := range u.SkillsOffered {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				skills = append(skills, s)
			}
		}
	}
	sort.Strings(skills)
	return skills, nil
}

// Count は全ユーザー数を返す。
func (r *MemoryUserRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

// DeleteByID は指定IDのユーザーを削除する。
func (r *MemoryUserRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return model.NewUserNotFoundError(id)
}

// MemorySessionRepo はメモリ上のセッションリポジトリ。
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemorySessionRepo はMemorySessionRepoを生成する。
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: make(map[string]*model.Session)}
}

// Create はセッションを作成する。
func (r *MemorySessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *session
	r.sessions[session.ID] = &c
	return nil
}

// FindByID は有効期限内のセッションを取得する。期限切れ・未登録はnilを返す。
func (r *MemorySessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	c := *s
	return &c, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *MemorySessionRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *MemorySessionRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
func (r *MemorySessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// MemorySwapRepo はメモリ上のスワップリクエストリポジトリ。
type MemorySwapRepo struct {
	mu   sync.RWMutex
	reqs []*model.SwapRequest
}

// NewMemorySwapRepo はMemorySwapRepoを生成する。
func NewMemorySwapRepo() *MemorySwapRepo {
	return &MemorySwapRepo{}
}

// Create はスワップリクエストを作成する。
func (r *MemorySwapRepo) Create(_ context.Context, req *model.SwapRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *req
	r.reqs = append(r.reqs, &c)
	return nil
}

// FindByID は指定IDのリクエストを取得する。見つからない場合はnilを返す。
func (r *MemorySwapRepo) FindByID(_ context.Context, id string) (*model.SwapRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, req := range r.reqs {
		if req.ID == id {
			c := *req
			return &c, nil
		}
	}
	return nil, nil
}

func sortSwapsDesc(reqs []*model.SwapRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}

// ListByParticipant は指定ユーザーが当事者であるリクエストを作成日時の降順で返す。
func (r *MemorySwapRepo) ListByParticipant(_ context.Context, userID string) ([]*model.SwapRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var reqs []*model.SwapRequest
	for _, req := range r.reqs {
		if req.IsParticipant(userID) {
			c := *req
			reqs = append(reqs, &c)
		}
	}
	sortSwapsDesc(reqs)
	return reqs, nil
}

// ListAll は全リクエストを作成日時の降順で返す。
func (r *MemorySwapRepo) ListAll(_ context.Context) ([]*model.SwapRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reqs := make([]*model.SwapRequest, 0, len(r.reqs))
	for _, req := range r.reqs {
		c := *req
		reqs = append(reqs, &c)
	}
	sortSwapsDesc(reqs)
	return reqs, nil
}

// UpdateStatus はリクエストのステータスを更新する。
func (r *MemorySwapRepo) UpdateStatus(_ context.Context, id string, status model.SwapStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.reqs {
		if req.ID == id {
			req.Status = status
			req.UpdatedAt = time.Now()
			return nil
		}
	}
	return model.NewSwapNotFoundError(id)
}

// Delete は指定IDのリクエストを削除する。
func (r *MemorySwapRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, req := range r.reqs {
		if req.ID == id {
			r.reqs = append(r.reqs[:i], r.reqs[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteByParticipant は指定ユーザーが当事者である全リクエストを削除する。
func (r *MemorySwapRepo) DeleteByParticipant(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.reqs[:0]
	for _, req := range r.reqs {
		if !req.IsParticipant(userID) {
			kept = append(kept, req)
		}
	}
	r.reqs = kept
	return nil
}

// CountByStatus はステータスごとのリクエスト数を返す。
func (r *MemorySwapRepo) CountByStatus(_ context.Context) (map[model.SwapStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[model.SwapStatus]int)
	for _, req := range r.reqs {
		counts[req.Status]++
	}
	return counts, nil
}

// MemoryFeedbackRepo はメモリ上のフィードバックリポジトリ。
type MemoryFeedbackRepo struct {
	mu   sync.RWMutex
	list []*model.Feedback
}

// NewMemoryFeedbackRepo はMemoryFeedbackRepoを生成する。
func NewMemoryFeedbackRepo() *MemoryFeedbackRepo {
	return &MemoryFeedbackRepo{}
}

// Create はフィードバックを作成する。
func (r *MemoryFeedbackRepo) Create(_ context.Context, fb *model.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *fb
	r.list = append(r.list, &c)
	return nil
}

// FindByID は指定IDのフィードバックを取得する。見つからない場合はnilを返す。
func (r *MemoryFeedbackRepo) FindByID(_ context.Context, id string) (*model.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fb := range r.list {
		if fb.ID == id {
			c := *fb
			return &c, nil
		}
	}
	return nil, nil
}

// ListByToUser は指定ユーザー宛てのフィードバックを作成日時の降順で返す。
func (r *MemoryFeedbackRepo) ListByToUser(_ context.Context, toUserID string) ([]*model.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*model.Feedback
	for _, fb := range r.list {
		if fb.ToUserID == toUserID {
			c := *fb
			list = append(list, &c)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// AverageRatingByToUser は指定ユーザー宛てフィードバックの評価平均と件数を返す。
func (r *MemoryFeedbackRepo) AverageRatingByToUser(_ context.Context, toUserID string) (float64, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum, count int
	for _, fb := range r.list {
		if fb.ToUserID == toUserID {
			sum += fb.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// Count は全フィードバック件数を返す。
func (r *MemoryFeedbackRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list), nil
}

// Delete は指定IDのフィードバックを削除する。
func (r *MemoryFeedbackRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, fb := range r.list {
		if fb.ID == id {
			r.list = append(r.list[:i], r.list[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteByFromUser は指定ユーザーが投稿した全フィードバックを削除する。
func (r *MemoryFeedbackRepo) DeleteByFromUser(_ context.Context, fromUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.list[:0]
	for _, fb := range r.list {
		if fb.FromUserID != fromUserID {
			kept = append(kept, fb)
		}
	}
	r.list = kept
	return nil
}

// compile-time interface checks
var (
	_ UserRepository        = (*MemoryUserRepo)(nil)
	_ SessionRepository     = (*MemorySessionRepo)(nil)
	_ SwapRequestRepository = (*MemorySwapRepo)(nil)
	_ FeedbackRepository    = (*MemoryFeedbackRepo)(nil)
)
