package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, txn *domain.LedgerTransaction) error {
	query := `
		INSERT INTO ledger_transactions (
			id, order_ref, kind, status, amount, currency, reason,
			provider_order_id, capture_id, refund_id, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	m := toLedgerModel(txn)
	_, err := r.db.Exec(ctx, query,
		m.ID, m.OrderRef, m.Kind, m.Status, m.Amount, m.Currency, m.Reason,
		m.ProviderOrderID, m.CaptureID, m.RefundID, m.CreatedAt, m.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create ledger transaction: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Update(ctx context.Context, txn *domain.LedgerTransaction) error {
	query := `
		UPDATE ledger_transactions
		SET status = $1, refund_id = $2, completed_at = $3
		WHERE id = $4
	`

	m := toLedgerModel(txn)
	tag, err := r.db.Exec(ctx, query, m.Status, m.RefundID, m.CompletedAt, m.ID)
	if err != nil {
		return fmt.Errorf("update ledger transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger transaction %s not found", txn.ID)
	}
	return nil
}

func (r *LedgerRepository) FindByOrderRef(ctx context.Context, orderRef string) ([]*domain.LedgerTransaction, error) {
	query := `
		SELECT id, order_ref, kind, status, amount::text, currency, reason,
		       provider_order_id, capture_id, refund_id, created_at, completed_at
		FROM ledger_transactions
		WHERE order_ref = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, orderRef)
	if err != nil {
		return nil, fmt.Errorf("query ledger transactions: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.LedgerTransaction, error) {
		var m LedgerModel
		err := row.Scan(
			&m.ID, &m.OrderRef, &m.Kind, &m.Status, &m.Amount, &m.Currency, &m.Reason,
			&m.ProviderOrderID, &m.CaptureID, &m.RefundID, &m.CreatedAt, &m.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		return toDomainLedger(m)
	})
	if err != nil {
		return nil, fmt.Errorf("scan ledger transactions: %w", err)
	}
	return results, nil
}
