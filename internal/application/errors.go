package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeGateway            = "GATEWAY_ERROR"
	ErrCodeOrderMismatch      = "ORDER_MISMATCH"
	ErrCodeOrderNotApproved   = "ORDER_NOT_APPROVED"
	ErrCodeOrderNotAuthorized = "ORDER_NOT_AUTHORIZED"
	ErrCodeOrderNotCaptured   = "ORDER_NOT_CAPTURED"
	ErrCodeOrderNotRefunded   = "ORDER_NOT_REFUNDED"
	ErrCodeRefundNotCaptured  = "REFUND_NOT_CAPTURED"
	ErrCodePlanConfiguration  = "PLAN_CONFIGURATION"
	ErrCodeAgreementNotFound  = "AGREEMENT_NOT_FOUND"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewGatewayError wraps any provider/transport failure. Shoppers only ever
// see the generic message; the wrapped error stays in logs and history.
func NewGatewayError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeGateway,
		Message:    "Payment provider request failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewOrderMismatchError flags an execute attempt whose payment id does not
// belong to this order. Indicates tampering or a stale client.
func NewOrderMismatchError(got, want string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeOrderMismatch,
		Message:    fmt.Sprintf("payment id %s does not match the order's payment %s", got, want),
		HTTPStatus: http.StatusConflict,
	}
}

func NewOrderNotApprovedError(state string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeOrderNotApproved,
		Message:    fmt.Sprintf("payment was not approved by the provider (state %q)", state),
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func NewOrderNotAuthorizedError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeOrderNotAuthorized,
		Message:    "provider declined the authorization",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

func NewOrderNotCapturedError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeOrderNotCaptured,
		Message:    "provider declined the capture",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

func NewOrderNotRefundedError(state string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeOrderNotRefunded,
		Message:    fmt.Sprintf("provider did not complete the refund (state %q)", state),
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewRefundNotCapturedError is the fail-fast precondition violation: refunds
// only exist after a capture.
func NewRefundNotCapturedError(orderRef string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeRefundNotCaptured,
		Message:    fmt.Sprintf("order %s has no captured payment to refund", orderRef),
		HTTPStatus: http.StatusConflict,
	}
}

func NewPlanConfigurationError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodePlanConfiguration,
		Message:    "order has no valid recurring plan configuration",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

func NewAgreementNotFoundError(agreementID string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeAgreementNotFound,
		Message:    fmt.Sprintf("billing agreement %s not found", agreementID),
		HTTPStatus: http.StatusNotFound,
	}
}

func NewInvalidStateError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidState,
		Message:    "Invalid state",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
