package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRecorder appends audit rows to order_history. Failures are logged
// and swallowed; the audit trail never fails a payment operation.
type HistoryRecorder struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewHistoryRecorder(db *pgxpool.Pool, logger *slog.Logger) *HistoryRecorder {
	return &HistoryRecorder{db: db, logger: logger.With("component", "history")}
}

func (h *HistoryRecorder) Record(ctx context.Context, orderRef, event, detail string) {
	query := `
		INSERT INTO order_history (order_ref, event, detail, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := h.db.Exec(ctx, query, orderRef, event, detail, time.Now()); err != nil {
		h.logger.Error("history write failed",
			"order_ref", orderRef,
			"event", event,
			"error", err)
	}
}
