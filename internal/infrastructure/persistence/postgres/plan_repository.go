package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

// PlanRepository is the billing-plan idempotency cache backed by the
// billing_plans table. The hash is the primary key, so a duplicate create
// attempt collapses onto the existing row.
type PlanRepository struct {
	db *pgxpool.Pool
}

func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

// FindByHash returns nil without error on a cache miss.
func (r *PlanRepository) FindByHash(ctx context.Context, identificationHash string) (*domain.BillingPlan, error) {
	query := `
		SELECT identification_hash, provider_plan_id, name, state, created_at
		FROM billing_plans WHERE identification_hash = $1
	`

	var m BillingPlanModel
	err := r.db.QueryRow(ctx, query, identificationHash).Scan(
		&m.IdentificationHash, &m.ProviderPlanID, &m.Name, &m.State, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find billing plan: %w", err)
	}
	return toDomainPlan(m), nil
}

func (r *PlanRepository) Save(ctx context.Context, plan *domain.BillingPlan) error {
	query := `
		INSERT INTO billing_plans (identification_hash, provider_plan_id, name, state, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identification_hash) DO UPDATE SET
			provider_plan_id = EXCLUDED.provider_plan_id,
			name = EXCLUDED.name,
			state = EXCLUDED.state
	`

	m := toPlanModel(plan)
	_, err := r.db.Exec(ctx, query, m.IdentificationHash, m.ProviderPlanID, m.Name, m.State, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("save billing plan: %w", err)
	}
	return nil
}
