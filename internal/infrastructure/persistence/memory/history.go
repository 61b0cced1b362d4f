package memory

import (
	"context"
	"sync"
	"time"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

// HistoryRecorder collects audit entries in memory. Tests assert against
// Entries to verify the trail an operation leaves behind.
type HistoryRecorder struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func NewHistoryRecorder() *HistoryRecorder {
	return &HistoryRecorder{}
}

func (h *HistoryRecorder) Record(ctx context.Context, orderRef, event, detail string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, domain.HistoryEntry{
		OrderRef:  orderRef,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now(),
	})
}

func (h *HistoryRecorder) Entries(orderRef string) []domain.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []domain.HistoryEntry
	for _, e := range h.entries {
		if e.OrderRef == orderRef {
			out = append(out, e)
		}
	}
	return out
}
