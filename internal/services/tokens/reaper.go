package tokens

import (
	"context"
	"log/slog"
	"time"

	"commerce/internal/lib/logger/sl"
	"commerce/internal/metrics"
)

type ExpiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Reaper sweeps refresh-token rows past their expiry. Expired rows are
// otherwise only removed when their token is presented again, so abandoned
// sessions would accumulate forever without it. Request handling never
// waits on the sweep.
type Reaper struct {
	log      *slog.Logger
	store    ExpiredTokenDeleter
	interval time.Duration
	now      func() time.Time
}

func NewReaper(log *slog.Logger, store ExpiredTokenDeleter, interval time.Duration) *Reaper {
	return &Reaper{
		log:      log,
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (r *Reaper) Run(ctx context.Context) {
	const op = "tokens.Reaper.Run"

	log := r.log.With(slog.String("op", op))
	log.Info("reaper started", slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx, log)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context, log *slog.Logger) {
	deleted, err := r.store.DeleteExpired(ctx, r.now())
	if err != nil {
		log.Error("sweep failed", sl.Err(err))
		return
	}

	if deleted > 0 {
		metrics.ReapedTokensTotal.Add(float64(deleted))
		log.Info("swept expired refresh tokens", slog.Int64("deleted", deleted))
	}
}
