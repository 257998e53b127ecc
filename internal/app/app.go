package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/skillsync/internal/admin"
	"github.com/hitoshi/skillsync/internal/config"
	"github.com/hitoshi/skillsync/internal/database"
	"github.com/hitoshi/skillsync/internal/directory"
	"github.com/hitoshi/skillsync/internal/feedback"
	"github.com/hitoshi/skillsync/internal/handler"
	"github.com/hitoshi/skillsync/internal/identity"
	"github.com/hitoshi/skillsync/internal/logger"
	"github.com/hitoshi/skillsync/internal/metrics"
	"github.com/hitoshi/skillsync/internal/middleware"
	"github.com/hitoshi/skillsync/internal/notify"
	"github.com/hitoshi/skillsync/internal/repository"
	"github.com/hitoshi/skillsync/internal/security"
	"github.com/hitoshi/skillsync/internal/seed"
	"github.com/hitoshi/skillsync/internal/swap"
	"github.com/hitoshi/skillsync/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	swapRepo := repository.NewPostgresSwapRepo(db)
	feedbackRepo := repository.NewPostgresFeedbackRepo(db)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()

	// 4. メトリクスと通知の初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	notifier := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.FromEmail)

	// 5. ドメインサービスの初期化
	photoFetcher := identity.NewPhotoFetcher(ssrfGuard, cfg.PhotoFetchTimeout, cfg.PhotoMaxSize)
	identityService := identity.NewService(
		userRepo, sessionRepo, sanitizer, photoFetcher,
		identity.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	directoryService := directory.NewService(userRepo)
	swapService := swap.NewService(swapRepo, userRepo, sanitizer, notifier, collector)
	feedbackService := feedback.NewService(feedbackRepo, swapRepo, userRepo, sanitizer, notifier, collector)
	adminService := admin.NewService(userRepo, sessionRepo, swapRepo, feedbackRepo, notifier)

	// 6. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	csrfConfig := middleware.CSRFConfig{
		CookieSecure: cfg.CookieSecure,
		CookieDomain: cfg.CookieDomain,
	}

	deps := &handler.RouterDeps{
		HealthChecker:     db,
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig:        csrfConfig,
		MetricsHandler:    metrics.SetupMetricsRoute(registry),
		StatusRecorder:    collector,

		AuthService: identityService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		ProfileService: identityService,

		DirectoryService: directoryService,
		SwapService:      swapService,
		FeedbackService:  feedbackService,
		AdminService:     adminService,
		UserFinder:       userRepo,
	}

	router := handler.NewRouter(deps)

	// 7. セッションクリーンアップジョブをバックグラウンドで起動
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupJob := cleanup.NewCleanupJob(sessionRepo, slog.Default(), collector)
	go cleanupJob.Start(ctx, cfg.SessionCleanupInterval)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed はデモデータを投入する。
// 既にユーザーが存在する場合は何もしない（冪等）。
func runSeed(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	userRepo := repository.NewPostgresUserRepo(db)
	swapRepo := repository.NewPostgresSwapRepo(db)
	feedbackRepo := repository.NewPostgresFeedbackRepo(db)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := seed.Run(ctx, userRepo, swapRepo, feedbackRepo); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("seed data loaded successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
