package domain

import (
	"slices"
	"time"
)

// PaymentStatus is derived from which provider ids are present on the
// state record; it is never stored separately so state and status cannot
// drift apart.
type PaymentStatus string

const (
	StatusEmpty      PaymentStatus = "EMPTY"
	StatusCreated    PaymentStatus = "CREATED"
	StatusExecuted   PaymentStatus = "EXECUTED"
	StatusAuthorized PaymentStatus = "AUTHORIZED"
	StatusCaptured   PaymentStatus = "CAPTURED"
)

// PayerData is what the gateway reports about the payer after execute.
type PayerData struct {
	Email     string
	FirstName string
	LastName  string
}

// OrderPaymentState is the payment record attached to one order. Fields
// are only ever set or cleared by the orchestrators; a void resets the
// whole record so a fresh create cycle can begin.
//
// Invariants:
//   - ProviderOrderID is set iff execute has succeeded since the last void.
//   - PaymentSuccessful implies CaptureID is set.
type OrderPaymentState struct {
	OrderRef string

	PaymentID       string
	PayerID         string
	Payer           PayerData
	ProviderOrderID string
	AuthorizationID string
	CaptureID       string
	AgreementID     string

	PaymentSuccessful bool
	RefundIDs         []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOrderPaymentState(orderRef string) *OrderPaymentState {
	now := time.Now()
	return &OrderPaymentState{
		OrderRef:  orderRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *OrderPaymentState) Status() PaymentStatus {
	switch {
	case s.PaymentSuccessful:
		return StatusCaptured
	case s.AuthorizationID != "":
		return StatusAuthorized
	case s.ProviderOrderID != "":
		return StatusExecuted
	case s.PaymentID != "":
		return StatusCreated
	default:
		return StatusEmpty
	}
}

// Create records the provider payment id returned by the create call.
func (s *OrderPaymentState) Create(paymentID string) error {
	if err := s.require(StatusEmpty); err != nil {
		return err
	}
	s.PaymentID = paymentID
	s.touch()
	return nil
}

// Execute records payer identity and the provider order id extracted from
// the execute response.
func (s *OrderPaymentState) Execute(payerID string, payer PayerData, providerOrderID string) error {
	if err := s.require(StatusCreated); err != nil {
		return err
	}
	s.PayerID = payerID
	s.Payer = payer
	s.ProviderOrderID = providerOrderID
	s.touch()
	return nil
}

// Authorize records the authorization id for the two-step capture path.
func (s *OrderPaymentState) Authorize(authorizationID string) error {
	if err := s.require(StatusExecuted); err != nil {
		return err
	}
	s.AuthorizationID = authorizationID
	s.touch()
	return nil
}

// Capture records the capture id and flips the terminal success flag.
func (s *OrderPaymentState) Capture(captureID string) error {
	if err := s.require(StatusExecuted, StatusAuthorized); err != nil {
		return err
	}
	s.CaptureID = captureID
	s.PaymentSuccessful = true
	s.touch()
	return nil
}

// AppendRefund adds a provider refund id. Refund ids are append-only.
func (s *OrderPaymentState) AppendRefund(refundID string) error {
	if s.CaptureID == "" {
		return NewInvalidTransitionError(s.Status(), StatusCaptured)
	}
	s.RefundIDs = append(s.RefundIDs, refundID)
	s.touch()
	return nil
}

// SetAgreement stores the active billing agreement id after an agreement
// execute. Subscriptions bypass the one-time capture path, so no status
// precondition applies.
func (s *OrderPaymentState) SetAgreement(agreementID string) {
	s.AgreementID = agreementID
	s.touch()
}

// Reset clears the record back to empty. Called after a successful void so
// the order can go through a fresh create cycle.
func (s *OrderPaymentState) Reset() {
	s.PaymentID = ""
	s.PayerID = ""
	s.Payer = PayerData{}
	s.ProviderOrderID = ""
	s.AuthorizationID = ""
	s.CaptureID = ""
	s.PaymentSuccessful = false
	s.RefundIDs = nil
	s.touch()
}

func (s *OrderPaymentState) require(allowed ...PaymentStatus) error {
	current := s.Status()
	if slices.Contains(allowed, current) {
		return nil
	}
	return NewInvalidTransitionError(current, allowed[0])
}

func (s *OrderPaymentState) touch() {
	s.UpdatedAt = time.Now()
}
