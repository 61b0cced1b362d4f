package memory

import (
	"context"
	"sync"
	"time"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

// StateRepository is the map-backed state store used in tests and for
// local development without a database.
type StateRepository struct {
	mu     sync.RWMutex
	states map[string]*domain.OrderPaymentState
}

func NewStateRepository() *StateRepository {
	return &StateRepository{states: make(map[string]*domain.OrderPaymentState)}
}

func (r *StateRepository) FindByOrderRef(ctx context.Context, orderRef string) (*domain.OrderPaymentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.states[orderRef]; ok {
		return copyState(state), nil
	}

	state := domain.NewOrderPaymentState(orderRef)
	r.states[orderRef] = copyState(state)
	return state, nil
}

func (r *StateRepository) Save(ctx context.Context, state *domain.OrderPaymentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[state.OrderRef] = copyState(state)
	return nil
}

func (r *StateRepository) FindPendingCaptures(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.OrderPaymentState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().Add(-olderThan)
	var out []*domain.OrderPaymentState
	for _, state := range r.states {
		if state.PaymentSuccessful || state.ProviderOrderID == "" {
			continue
		}
		if state.UpdatedAt.After(cutoff) {
			continue
		}
		out = append(out, copyState(state))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func copyState(state *domain.OrderPaymentState) *domain.OrderPaymentState {
	dup := *state
	dup.RefundIDs = append([]string(nil), state.RefundIDs...)
	return &dup
}
