package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

type StateRepository struct {
	db *pgxpool.Pool
}

func NewStateRepository(db *pgxpool.Pool) *StateRepository {
	return &StateRepository{db: db}
}

const stateColumns = `order_ref, payment_id, payer_id, payer_email, payer_first_name, payer_last_name,
	       provider_order_id, authorization_id, capture_id, agreement_id,
	       payment_successful, refund_ids, created_at, updated_at`

// FindByOrderRef returns the state row for an order, inserting an empty
// one the first time the order is seen. The insert races are absorbed by
// ON CONFLICT DO NOTHING plus a re-read.
func (r *StateRepository) FindByOrderRef(ctx context.Context, orderRef string) (*domain.OrderPaymentState, error) {
	state, err := r.findByOrderRef(ctx, orderRef)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	fresh := domain.NewOrderPaymentState(orderRef)
	query := `
		INSERT INTO payment_states (order_ref, created_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_ref) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, fresh.OrderRef, fresh.CreatedAt, fresh.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert empty payment state: %w", err)
	}

	return r.findByOrderRef(ctx, orderRef)
}

func (r *StateRepository) findByOrderRef(ctx context.Context, orderRef string) (*domain.OrderPaymentState, error) {
	query := `SELECT ` + stateColumns + ` FROM payment_states WHERE order_ref = $1`

	row := r.db.QueryRow(ctx, query, orderRef)
	return scanState(row)
}

func (r *StateRepository) Save(ctx context.Context, state *domain.OrderPaymentState) error {
	query := `
		INSERT INTO payment_states (
			order_ref, payment_id, payer_id, payer_email, payer_first_name, payer_last_name,
			provider_order_id, authorization_id, capture_id, agreement_id,
			payment_successful, refund_ids, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (order_ref) DO UPDATE SET
			payment_id = EXCLUDED.payment_id,
			payer_id = EXCLUDED.payer_id,
			payer_email = EXCLUDED.payer_email,
			payer_first_name = EXCLUDED.payer_first_name,
			payer_last_name = EXCLUDED.payer_last_name,
			provider_order_id = EXCLUDED.provider_order_id,
			authorization_id = EXCLUDED.authorization_id,
			capture_id = EXCLUDED.capture_id,
			agreement_id = EXCLUDED.agreement_id,
			payment_successful = EXCLUDED.payment_successful,
			refund_ids = EXCLUDED.refund_ids,
			updated_at = EXCLUDED.updated_at
	`

	m := toStateModel(state)
	_, err := r.db.Exec(ctx, query,
		m.OrderRef, m.PaymentID, m.PayerID, m.PayerEmail, m.PayerFirstName, m.PayerLastName,
		m.ProviderOrderID, m.AuthorizationID, m.CaptureID, m.AgreementID,
		m.PaymentSuccessful, m.RefundIDs, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save payment state: %w", err)
	}
	return nil
}

// FindPendingCaptures lists executed-but-uncaptured orders untouched for
// at least olderThan, oldest first.
func (r *StateRepository) FindPendingCaptures(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.OrderPaymentState, error) {
	query := `
		SELECT ` + stateColumns + `
		FROM payment_states
		WHERE payment_successful = FALSE
		  AND provider_order_id <> ''
		  AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending captures: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.OrderPaymentState, error) {
		var m PaymentStateModel
		err := row.Scan(
			&m.OrderRef, &m.PaymentID, &m.PayerID, &m.PayerEmail, &m.PayerFirstName, &m.PayerLastName,
			&m.ProviderOrderID, &m.AuthorizationID, &m.CaptureID, &m.AgreementID,
			&m.PaymentSuccessful, &m.RefundIDs, &m.CreatedAt, &m.UpdatedAt,
		)
		return toDomainState(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan pending captures: %w", err)
	}
	return results, nil
}

func scanState(row pgx.Row) (*domain.OrderPaymentState, error) {
	var m PaymentStateModel
	err := row.Scan(
		&m.OrderRef, &m.PaymentID, &m.PayerID, &m.PayerEmail, &m.PayerFirstName, &m.PayerLastName,
		&m.ProviderOrderID, &m.AuthorizationID, &m.CaptureID, &m.AgreementID,
		&m.PaymentSuccessful, &m.RefundIDs, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return toDomainState(m), nil
}
