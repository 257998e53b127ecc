package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/skillsync/internal/middleware"
)

// HealthChecker はDB疎通確認のためのインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// /metrics エンドポイント（nilの場合は公開しない）
	MetricsHandler http.Handler

	// 応答ステータスコードの計測先（nilの場合は記録しない）
	StatusRecorder middleware.HTTPStatusRecorder

	// 認証・プロフィール
	AuthService    AuthServiceInterface
	AuthConfig     AuthHandlerConfig
	ProfileService ProfileServiceInterface

	// ディレクトリ
	DirectoryService DirectoryServiceInterface

	// スワップ
	SwapService SwapServiceInterface

	// フィードバック
	FeedbackService FeedbackServiceInterface

	// 管理
	AdminService AdminServiceInterface

	// 実行者の解決に使う
	UserFinder UserFinder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → Session → CSRF → RateLimit(General)
//
// 認証ルート（/auth/*）と /health、/metrics はセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.DirectoryService, deps.ProfileService, deps.UserFinder)
	swapHandler := NewSwapHandler(deps.SwapService, deps.UserFinder)
	feedbackHandler := NewFeedbackHandler(deps.FeedbackService, deps.UserFinder)
	adminHandler := NewAdminHandler(deps.AdminService, deps.UserFinder)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", newHealthHandler(deps.HealthChecker))

	// Prometheusメトリクス
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// CSRFトークン取得
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// 認証ルート
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.SignIn)
		r.Post("/logout", authHandler.SignOut)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// プロフィール管理
		r.Patch("/api/profile", userHandler.UpdateProfile)

		// ディレクトリ
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Get("/skills", userHandler.ListSkills)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)
				r.Get("/photo", userHandler.GetUserPhoto)

				// GET /api/users/{id}/feedback - 受信フィードバック一覧
				r.Get("/feedback", feedbackHandler.ListUserFeedback)
			})
		})

		// スワップ管理
		r.Route("/api/swaps", func(r chi.Router) {
			// POST /api/swaps - スワップ作成（作成専用レート制限を追加）
			r.With(deps.RateLimiter.SwapCreationMiddleware()).Post("/", swapHandler.CreateSwap)

			r.Get("/", swapHandler.ListSwaps)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", swapHandler.GetSwap)
				r.Put("/status", swapHandler.UpdateSwapStatus)
				r.Delete("/", swapHandler.DeleteSwap)
			})
		})

		// フィードバック管理
		r.Post("/api/feedback", feedbackHandler.SubmitFeedback)

		// 管理操作
		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/stats", adminHandler.GetStats)
			r.Get("/swaps", adminHandler.ListAllSwaps)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
			r.Delete("/swaps/{id}", adminHandler.DeleteSwap)
			r.Delete("/feedback/{id}", adminHandler.DeleteFeedback)
			r.Post("/broadcast", adminHandler.Broadcast)
		})
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if checker != nil {
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
