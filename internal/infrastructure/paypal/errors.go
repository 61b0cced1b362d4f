package paypal

import (
	"errors"
	"fmt"
)

// GatewayError is a failure reported by the provider itself, as opposed to
// a transport failure which surfaces as a plain wrapped error. Orchestrators
// treat both as ambiguous where a reconciliation query exists.
type GatewayError struct {
	Name       string // PayPal error name, e.g. VALIDATION_ERROR
	Message    string
	StatusCode int
	DebugID    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error [%s]: %s (status: %d, debug_id: %s)", e.Name, e.Message, e.StatusCode, e.DebugID)
}

func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}

// HasErrorName reports whether err is a GatewayError carrying one of the
// given provider error names.
func HasErrorName(err error, names ...string) bool {
	gwErr, ok := IsGatewayError(err)
	if !ok {
		return false
	}
	for _, n := range names {
		if gwErr.Name == n {
			return true
		}
	}
	return false
}
