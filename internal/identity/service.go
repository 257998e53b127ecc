package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/skillsync/internal/model"
	"github.com/hitoshi/skillsync/internal/repository"
	"github.com/hitoshi/skillsync/internal/security"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証とプロフィール管理のビジネスロジックを提供する。
type Service struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	sanitizer    security.TextSanitizerService
	photoFetcher PhotoFetcherService
	config       ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	sanitizer security.TextSanitizerService,
	photoFetcher PhotoFetcherService,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		sanitizer:    sanitizer,
		photoFetcher: photoFetcher,
		config:       config,
	}
}

// Register は新規ユーザーを登録し、セッションを発行する。
// メールアドレスが登録済みの場合はEMAIL_EXISTSエラーを返す。
func (s *Service) Register(ctx context.Context, email, password, name string) (*model.User, *model.Session, error) {
	name = s.sanitizer.Sanitize(name)
	if email == "" || password == "" || name == "" {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewEmailExistsError(email)
	}

	now := time.Now()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		IsPublic:  true,
		JoinDate:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return user, session, nil
}

// SignIn はメールアドレスでユーザーを照合し、セッションを発行する。
// デモ運用のためパスワードは空でないことのみ確認し、保存された資格情報との
// 照合は行わない。ユーザー不在はINVALID_CREDENTIALSを返す。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	if email == "" || password == "" {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user signed in", slog.String("user_id", user.ID))
	return user, session, nil
}

// SignOut はセッションを破棄する。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user signed out", slog.String("session_id", sessionID))
	return nil
}

// CurrentUser はセッションから現在のユーザーを取得する。
// セッションが無効・期限切れの場合はUNAUTHORIZEDを返す。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	return user, nil
}

// UpdateProfile はプロフィールを部分更新する。
// nilフィールドは既存の値を維持する。PhotoURLが空文字列の場合は写真を削除し、
// URLが指定された場合はSSRF検証付きで取得して保存する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, update *model.ProfileUpdate) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	if update.Name != nil {
		name := s.sanitizer.Sanitize(*update.Name)
		if name != "" {
			user.Name = name
		}
	}
	if update.Location != nil {
		user.Location = s.sanitizer.Sanitize(*update.Location)
	}
	if update.SkillsOffered != nil {
		user.SkillsOffered = s.sanitizer.SanitizeList(*update.SkillsOffered)
	}
	if update.SkillsWanted != nil {
		user.SkillsWanted = s.sanitizer.SanitizeList(*update.SkillsWanted)
	}
	if update.Availability != nil {
		user.Availability = s.sanitizer.SanitizeList(*update.Availability)
	}
	if update.IsPublic != nil {
		user.IsPublic = *update.IsPublic
	}

	if update.PhotoURL != nil {
		if *update.PhotoURL == "" {
			// 空文字列は写真の削除
			user.PhotoData = nil
			user.PhotoMime = ""
		} else {
			data, mime, err := s.photoFetcher.FetchPhoto(ctx, *update.PhotoURL)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch photo: %w", err)
			}
			if data == nil {
				return nil, model.NewInvalidPhotoURLError(*update.PhotoURL)
			}
			user.PhotoData = data
			user.PhotoMime = mime
		}
	}

	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("profile updated", slog.String("user_id", userID))
	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
