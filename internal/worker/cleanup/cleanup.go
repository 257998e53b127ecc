// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// 有効期限を過ぎたセッション行を定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/skillsync/internal/metrics"
	"github.com/hitoshi/skillsync/internal/repository"
)

// CleanupJob は期限切れセッションの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessionRepo repository.SessionRepository
	logger      *slog.Logger
	collector   metrics.MetricsCollector
}

// NewCleanupJob は新しいCleanupJobを生成する。collectorはnilを許容する。
func NewCleanupJob(sessionRepo repository.SessionRepository, logger *slog.Logger, collector metrics.MetricsCollector) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		logger:      logger,
		collector:   collector,
	}
}

// Run は有効期限を過ぎたセッションを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.sessionRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	if j.collector != nil {
		j.collector.RecordSessionsCleaned(deletedCount)
	}

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は指定間隔のティッカーでクリーンアップジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("セッションクリーンアップスケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := j.Run(ctx); err != nil {
		j.logger.Error("クリーンアップサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップスケジューラを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("クリーンアップサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
