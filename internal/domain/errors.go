package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeStateNotFound        = "PAYMENT_STATE_NOT_FOUND"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidState         = "INVALID_STATE"
	ErrCodePlanConfiguration    = "PLAN_CONFIGURATION"
)

// ErrInvalidTransition is the sentinel behind every illegal state change so
// callers can errors.Is against it without caring about the specific pair.
var ErrInvalidTransition = errors.New("invalid payment state transition")

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidAmountError(amount string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %q", amount),
	}
}

func NewInvalidTransitionError(from, to PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Err:     ErrInvalidTransition,
	}
}

func NewStateNotFoundError(orderRef string) *DomainError {
	return &DomainError{
		Code:    ErrCodeStateNotFound,
		Message: fmt.Sprintf("no payment state for order %s", orderRef),
	}
}

func NewInvalidStateError(detail string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidState,
		Message: detail,
	}
}

func NewPlanConfigurationError(detail string) *DomainError {
	return &DomainError{
		Code:    ErrCodePlanConfiguration,
		Message: fmt.Sprintf("invalid recurring plan configuration: %s", detail),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
