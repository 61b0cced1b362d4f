package postgres

import (
	"time"
)

// PaymentStateModel mirrors the payment_states table.
type PaymentStateModel struct {
	OrderRef          string
	PaymentID         string
	PayerID           string
	PayerEmail        string
	PayerFirstName    string
	PayerLastName     string
	ProviderOrderID   string
	AuthorizationID   string
	CaptureID         string
	AgreementID       string
	PaymentSuccessful bool
	RefundIDs         []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BillingPlanModel mirrors the billing_plans table.
type BillingPlanModel struct {
	IdentificationHash string
	ProviderPlanID     string
	Name               string
	State              string
	CreatedAt          time.Time
}

// LedgerModel mirrors the ledger_transactions table. Amounts travel as
// strings; the column is NUMERIC and postgres does the coercion.
type LedgerModel struct {
	ID              string
	OrderRef        string
	Kind            string
	Status          string
	Amount          string
	Currency        string
	Reason          string
	ProviderOrderID string
	CaptureID       string
	RefundID        string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}
