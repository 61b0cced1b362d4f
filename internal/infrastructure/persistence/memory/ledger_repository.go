package memory

import (
	"context"
	"sync"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

// LedgerRepository keeps ledger rows in memory, append order preserved.
type LedgerRepository struct {
	mu   sync.RWMutex
	rows []*domain.LedgerTransaction
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

func (r *LedgerRepository) Create(ctx context.Context, txn *domain.LedgerTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dup := *txn
	r.rows = append(r.rows, &dup)
	return nil
}

func (r *LedgerRepository) Update(ctx context.Context, txn *domain.LedgerTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, row := range r.rows {
		if row.ID == txn.ID {
			dup := *txn
			r.rows[i] = &dup
			return nil
		}
	}
	return nil
}

func (r *LedgerRepository) FindByOrderRef(ctx context.Context, orderRef string) ([]*domain.LedgerTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.LedgerTransaction
	for _, row := range r.rows {
		if row.OrderRef == orderRef {
			dup := *row
			out = append(out, &dup)
		}
	}
	return out, nil
}
