package memory

import (
	"context"
	"sync"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

// PlanRepository is the map-backed billing-plan cache.
type PlanRepository struct {
	mu    sync.RWMutex
	plans map[string]*domain.BillingPlan
}

func NewPlanRepository() *PlanRepository {
	return &PlanRepository{plans: make(map[string]*domain.BillingPlan)}
}

func (r *PlanRepository) FindByHash(ctx context.Context, identificationHash string) (*domain.BillingPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plan, ok := r.plans[identificationHash]
	if !ok {
		return nil, nil
	}
	dup := *plan
	return &dup, nil
}

func (r *PlanRepository) Save(ctx context.Context, plan *domain.BillingPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dup := *plan
	r.plans[plan.IdentificationHash] = &dup
	return nil
}
