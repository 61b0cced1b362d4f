package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/paypal"
)

// ErrorCategory represents the nature of an error for retry and
// reconciliation decisions.
type ErrorCategory string

const (
	// CategoryTransient: the call certainly did not take effect; safe to retry.
	CategoryTransient ErrorCategory = "TRANSIENT"
	// CategoryAmbiguous: the remote side may have committed; reconcile
	// before deciding the outcome.
	CategoryAmbiguous ErrorCategory = "AMBIGUOUS"
	// CategoryPermanent: the provider rejected the operation; retrying the
	// same request cannot succeed.
	CategoryPermanent ErrorCategory = "PERMANENT"
	// CategoryClientError: bad input or state on our side.
	CategoryClientError ErrorCategory = "CLIENT_ERROR"
)

// CategorizeError buckets an error by what the caller may safely do
// next: retry it, reconcile the remote state, or give up.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	// A deadline miss mid-call leaves the remote outcome unknown.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryAmbiguous
	}

	if domain.IsErrorCode(err, domain.ErrCodeInvalidTransition) ||
		domain.IsErrorCode(err, domain.ErrCodeInvalidState) ||
		domain.IsErrorCode(err, domain.ErrCodeInvalidAmount) ||
		domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField) ||
		domain.IsErrorCode(err, domain.ErrCodePlanConfiguration) {
		return CategoryClientError
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeOrderMismatch, ErrCodeRefundNotCaptured, ErrCodePlanConfiguration, ErrCodeInvalidState:
			return CategoryClientError
		case ErrCodeOrderNotApproved, ErrCodeOrderNotAuthorized, ErrCodeOrderNotCaptured, ErrCodeOrderNotRefunded:
			return CategoryPermanent
		case ErrCodeGateway:
			if svcErr.Err != nil {
				return CategorizeError(svcErr.Err)
			}
			return CategoryAmbiguous
		}
	}

	if gwErr, ok := paypal.IsGatewayError(err); ok {
		if gwErr.StatusCode >= 500 {
			return CategoryTransient
		}
		switch gwErr.Name {
		case "VALIDATION_ERROR", "MALFORMED_REQUEST":
			return CategoryClientError
		case "INVALID_RESOURCE_ID", "ORDER_NOT_FOUND", "AGREEMENT_NOT_FOUND":
			return CategoryClientError
		case "RATE_LIMIT_REACHED":
			return CategoryTransient
		default:
			return CategoryPermanent
		}
	}

	// No structured response at all: transport failure. The request may or
	// may not have reached the provider.
	return CategoryAmbiguous
}

// IsAmbiguous reports whether the true remote outcome is unknown and a
// reconciliation query should decide it.
func IsAmbiguous(err error) bool {
	c := CategorizeError(err)
	return c == CategoryAmbiguous || c == CategoryTransient
}

// ToHTTPStatus picks the status line for the error the facade is about
// to write. Precondition failures land on 409/422, provider outages on
// 502.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	switch {
	case domain.IsErrorCode(err, domain.ErrCodeStateNotFound):
		return http.StatusNotFound
	case domain.IsErrorCode(err, domain.ErrCodeInvalidTransition),
		domain.IsErrorCode(err, domain.ErrCodeInvalidState):
		return http.StatusConflict
	case domain.IsErrorCode(err, domain.ErrCodeInvalidAmount),
		domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField),
		domain.IsErrorCode(err, domain.ErrCodePlanConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	if gwErr, ok := paypal.IsGatewayError(err); ok {
		if gwErr.StatusCode >= 500 {
			return http.StatusBadGateway
		}
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

// ToErrorCode picks the machine-readable code clients switch on. Gateway
// failures expose the PayPal error name directly.
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	if gwErr, ok := paypal.IsGatewayError(err); ok {
		return gwErr.Name
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}

	return ErrCodeInternal
}
