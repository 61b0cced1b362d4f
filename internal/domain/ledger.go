package domain

import (
	"time"
)

// LedgerKind distinguishes charge rows from refund rows.
type LedgerKind string

const (
	LedgerPayment LedgerKind = "PAYMENT"
	LedgerRefund  LedgerKind = "REFUND"
)

type LedgerStatus string

const (
	LedgerPending   LedgerStatus = "PENDING"
	LedgerCompleted LedgerStatus = "COMPLETED"
	LedgerErred     LedgerStatus = "ERRED"
)

// LedgerTransaction is the local accounting row written alongside gateway
// money movements. Refunds are written PENDING before the gateway call so a
// crash mid-refund leaves an auditable trace.
type LedgerTransaction struct {
	ID       string
	OrderRef string
	Kind     LedgerKind
	Status   LedgerStatus

	Amount Money
	Reason string

	ProviderOrderID string
	CaptureID       string
	RefundID        string

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// HistoryEntry is one line of an order's audit trail. Every remote-call
// failure is recorded here before the error propagates.
type HistoryEntry struct {
	OrderRef  string
	Event     string
	Detail    string
	CreatedAt time.Time
}

// Domain events published on terminal payment outcomes. The host platform's
// bus is an external collaborator; these are the payloads it receives.
type PaymentCapturedEvent struct {
	OrderRef        string
	ProviderOrderID string
	CaptureID       string
	Amount          Money
}

type PaymentRefundedEvent struct {
	OrderRef string
	RefundID string
	Amount   Money
	Reason   string
}

type AgreementActivatedEvent struct {
	OrderRef    string
	AgreementID string
}
