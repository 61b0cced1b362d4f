package application

import (
	"context"
	"time"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

// StateRepository persists the per-order payment state record.
type StateRepository interface {
	// FindByOrderRef returns the state for an order, creating an empty
	// record the first time an order enters checkout.
	FindByOrderRef(ctx context.Context, orderRef string) (*domain.OrderPaymentState, error)
	Save(ctx context.Context, state *domain.OrderPaymentState) error
	// FindPendingCaptures lists orders that executed but never captured,
	// untouched for at least olderThan. Feed for the capture sweeper.
	FindPendingCaptures(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.OrderPaymentState, error)
}

// PlanRepository is the billing-plan idempotency cache: identification hash
// to remote plan id.
type PlanRepository interface {
	FindByHash(ctx context.Context, identificationHash string) (*domain.BillingPlan, error)
	Save(ctx context.Context, plan *domain.BillingPlan) error
}

// LedgerRepository records local accounting rows mirroring gateway money
// movements.
type LedgerRepository interface {
	Create(ctx context.Context, txn *domain.LedgerTransaction) error
	Update(ctx context.Context, txn *domain.LedgerTransaction) error
	FindByOrderRef(ctx context.Context, orderRef string) ([]*domain.LedgerTransaction, error)
}

// HistoryRecorder appends to an order's audit trail. Implementations must
// never fail the business operation: history write errors are logged and
// swallowed by callers.
type HistoryRecorder interface {
	Record(ctx context.Context, orderRef, event, detail string)
}

// EventPublisher hands domain events to the host platform's bus.
type EventPublisher interface {
	Publish(ctx context.Context, event any)
}
