package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"page-auth-service/internal/infra/metrics"
	"page-auth-service/internal/usecase"
)

// ReconcileWorker periodically re-runs provisioning for claims that were
// interrupted between the code claim and the page assignment.
type ReconcileWorker struct {
	interval time.Duration
	redeemUC usecase.RedeemUseCase
	log      *zerolog.Logger
}

func NewReconcileWorker(interval time.Duration, redeemUC usecase.RedeemUseCase, logger *zerolog.Logger) *ReconcileWorker {
	wlog := logger.With().Str("component", "ReconcileWorker").Logger()
	return &ReconcileWorker{
		interval: interval,
		redeemUC: redeemUC,
		log:      &wlog,
	}
}

func (w *ReconcileWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting reconcile worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping reconcile worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.redeemUC.Reconcile(ctx)
			if err != nil {
				metrics.ObserveReconcile("error")
				w.log.Error().Err(err).Msg("reconcile worker error")
				continue
			}
			if n > 0 {
				metrics.ObserveReconcile("repaired")
				w.log.Info().Int("count", n).Msg("orphaned claims repaired")
			}
		}
	}
}
