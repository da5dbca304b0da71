package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"voice-analytics/internal/infra/redis"
	"voice-analytics/internal/usecase"
)

const reconcilerLockKey = "lock:transcription-reconciler"

// StaleReconciler is the part of the transcription use case the reconciler drives.
type StaleReconciler interface {
	ReconcileStale(ctx context.Context, staleAfter time.Duration, batch int) (usecase.ReconcileReport, error)
}

// Reconciler periodically settles requests whose background unit was lost,
// e.g. because the process restarted mid-flight. When several replicas run,
// a redis lock keeps passes from overlapping.
type Reconciler struct {
	uc         StaleReconciler
	locker     redis.Locker // optional
	interval   time.Duration
	staleAfter time.Duration
	batch      int
	log        *zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewReconciler(uc StaleReconciler, locker redis.Locker, interval, staleAfter time.Duration, batch int, logger *zerolog.Logger) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	if batch <= 0 {
		batch = 100
	}
	l := logger.With().Str("component", "reconciler").Logger()
	return &Reconciler{
		uc:         uc,
		locker:     locker,
		interval:   interval,
		staleAfter: staleAfter,
		batch:      batch,
		log:        &l,
	}
}

// Start runs one pass immediately, then one per interval, in the background.
// Calling Start twice has no effect.
func (r *Reconciler) Start(parent context.Context) {
	if r.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		t := time.NewTicker(r.interval)
		defer t.Stop()

		r.log.Info().Dur("interval", r.interval).Dur("stale_after", r.staleAfter).Msg("reconciler started")
		r.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				r.log.Info().Msg("reconciler stopped")
				return
			case <-t.C:
				r.RunOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight pass to return.
func (r *Reconciler) Stop() {
	if r.done == nil {
		return
	}
	r.cancel()
	<-r.done
}

// RunOnce performs a single reconciliation pass.
func (r *Reconciler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()

	if r.locker != nil {
		token, err := r.locker.TryLock(ctx, reconcilerLockKey, r.interval)
		if errors.Is(err, redis.ErrLockBusy) {
			r.log.Debug().Msg("another replica is reconciling; skipping pass")
			return
		}
		if err != nil {
			r.log.Warn().Err(err).Msg("could not take reconciler lock; skipping pass")
			return
		}
		defer func() {
			if err := r.locker.Unlock(context.WithoutCancel(ctx), reconcilerLockKey, token); err != nil {
				r.log.Warn().Err(err).Msg("failed to release reconciler lock")
			}
		}()
	}

	report, err := r.uc.ReconcileStale(ctx, r.staleAfter, r.batch)
	if err != nil {
		r.log.Error().Err(err).Msg("reconcile pass failed")
		return
	}
	if report.Requeued > 0 || report.Failed > 0 {
		r.log.Info().Int("requeued", report.Requeued).Int("failed", report.Failed).Msg("stale requests reconciled")
	}
}
