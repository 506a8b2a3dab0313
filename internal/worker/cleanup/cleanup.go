// Package cleanup はメンテナンス用の定期ジョブを提供する。
// 期限切れセッションの削除と、放置された保留中取引の取り消しを行う。
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/accountmart/internal/metrics"
)

// SessionPurger は期限切れセッションを削除する。
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StalePurchaseCanceller は指定時刻より古い保留中取引を取り消す。
type StalePurchaseCanceller interface {
	CancelStalePending(ctx context.Context, before time.Time) (int64, error)
}

// Job はメンテナンスジョブ。
// 各処理は冪等で、対象がなくてもエラーにならない。
type Job struct {
	sessions  SessionPurger
	purchases StalePurchaseCanceller
	recorder  metrics.CleanupRecorder
	logger    *slog.Logger

	// PendingTTL を超えて保留中のままの取引は取り消す。0以下なら取り消さない。
	PendingTTL time.Duration

	now func() time.Time
}

// NewJob は新しいJobを生成する。recorderがnilの場合はメトリクスを記録しない。
func NewJob(
	sessions SessionPurger,
	purchases StalePurchaseCanceller,
	recorder metrics.CleanupRecorder,
	logger *slog.Logger,
	pendingTTL time.Duration,
) *Job {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		sessions:   sessions,
		purchases:  purchases,
		recorder:   recorder,
		logger:     logger,
		PendingTTL: pendingTTL,
		now:        time.Now,
	}
}

// RunOnce は全ての処理を1回実行する。
// 一方が失敗しても他方は実行し、エラーはまとめて返す。
func (j *Job) RunOnce(ctx context.Context) error {
	start := j.now()

	var errs []error

	sessions, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		errs = append(errs, fmt.Errorf("期限切れセッションの削除に失敗: %w", err))
	} else {
		j.recorder.RecordSessionsExpired(sessions)
	}

	var purchases int64
	if j.PendingTTL > 0 {
		before := start.Add(-j.PendingTTL)
		purchases, err = j.purchases.CancelStalePending(ctx, before)
		if err != nil {
			j.logger.Error("保留中取引の取り消しに失敗しました",
				slog.String("error", err.Error()),
				slog.Time("before", before),
			)
			errs = append(errs, fmt.Errorf("保留中取引の取り消しに失敗: %w", err))
		} else {
			j.recorder.RecordPurchasesExpired(purchases)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	j.logger.Info("メンテナンスジョブが完了しました",
		slog.Int64("sessions_deleted", sessions),
		slog.Int64("purchases_cancelled", purchases),
		slog.Duration("pending_ttl", j.PendingTTL),
		slog.Float64("duration_ms", float64(j.now().Sub(start).Milliseconds())),
	)
	return nil
}

// DefaultInterval はintervalが0以下の場合に使う実行間隔。
const DefaultInterval = time.Hour

// Start はintervalごとにRunOnceを実行する。起動直後にも1回実行する。
// intervalが0以下の場合はDefaultIntervalを使う。
// コンテキストがキャンセルされるまでブロックする。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("メンテナンスジョブを開始しました",
		slog.Duration("interval", interval),
	)

	j.runLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("メンテナンスジョブを停止しました")
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *Job) runLogged(ctx context.Context) {
	if err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("メンテナンスサイクルでエラーが発生しました",
			slog.String("error", err.Error()),
		)
	}
}
