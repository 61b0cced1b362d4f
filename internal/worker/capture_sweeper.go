package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/checkoutkit/paypal-orchestrator/internal/application"
	"github.com/checkoutkit/paypal-orchestrator/internal/config"
	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

// Reconciler resolves an order stuck between execute and capture.
type Reconciler interface {
	ReconcileOrder(ctx context.Context, orderRef string) (*domain.OrderPaymentState, error)
}

// CaptureSweeper periodically picks up orders whose capture outcome was
// lost (crash or timeout between the capture call and the state write) and
// runs the reconciliation query for each.
type CaptureSweeper struct {
	states     application.StateRepository
	reconciler Reconciler
	interval   time.Duration
	batchSize  int
	pendingAge time.Duration
	logger     *slog.Logger
}

func NewCaptureSweeper(
	states application.StateRepository,
	reconciler Reconciler,
	cfg config.WorkerConfig,
	logger *slog.Logger,
) *CaptureSweeper {
	return &CaptureSweeper{
		states:     states,
		reconciler: reconciler,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		pendingAge: cfg.PendingAge,
		logger:     logger.With("worker", "capture_sweeper"),
	}
}

func (s *CaptureSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting capture sweeper",
		"interval", s.interval,
		"batch_size", s.batchSize,
		"pending_age", s.pendingAge)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping capture sweeper")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single sweep cycle.
func (s *CaptureSweeper) RunOnce(ctx context.Context) {
	pending, err := s.states.FindPendingCaptures(ctx, s.pendingAge, s.batchSize)
	if err != nil {
		s.logger.Error("failed to fetch pending captures", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	s.logger.Info("reconciling stuck orders", "count", len(pending))

	for _, state := range pending {
		resolved, err := s.reconciler.ReconcileOrder(ctx, state.OrderRef)
		if err != nil {
			s.logger.Error("reconciliation failed",
				"order_ref", state.OrderRef,
				"error", err)
			continue
		}
		s.logger.Info("order reconciled",
			"order_ref", state.OrderRef,
			"status", resolved.Status())
	}
}
