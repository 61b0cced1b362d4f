package paypal

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/checkoutkit/paypal-orchestrator/internal/config"
)

// RetryGateway retries read-only lookups on transient failures. Mutating
// calls pass through exactly once: the orchestrators own their recovery
// (reconciliation for capture, caller-driven retry for refund and void),
// and a blind transport-level retry of a create or capture could double
// a money movement.
type RetryGateway struct {
	inner      Gateway
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryGateway(inner Gateway, cfg config.RetryConfig) Gateway {
	return &RetryGateway{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: cfg.MaxRetries,
	}
}

func (r *RetryGateway) CreatePayment(ctx context.Context, req *PaymentRequest, correlationID string) (*Payment, error) {
	return r.inner.CreatePayment(ctx, req, correlationID)
}

func (r *RetryGateway) ExecutePayment(ctx context.Context, paymentID string, req *ExecuteRequest, correlationID string) (*Payment, error) {
	return r.inner.ExecutePayment(ctx, paymentID, req, correlationID)
}

func (r *RetryGateway) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	return retry(r, ctx, func(ctx context.Context) (*Payment, error) {
		return r.inner.GetPayment(ctx, paymentID)
	})
}

func (r *RetryGateway) GetOrder(ctx context.Context, orderID string) (*OrderResource, error) {
	return retry(r, ctx, func(ctx context.Context) (*OrderResource, error) {
		return r.inner.GetOrder(ctx, orderID)
	})
}

func (r *RetryGateway) AuthorizeOrder(ctx context.Context, orderID string, req *AuthorizationRequest, correlationID string) (*AuthorizationResource, error) {
	return r.inner.AuthorizeOrder(ctx, orderID, req, correlationID)
}

func (r *RetryGateway) CaptureOrder(ctx context.Context, orderID string, req *CaptureRequest, correlationID string) (*CaptureResource, error) {
	return r.inner.CaptureOrder(ctx, orderID, req, correlationID)
}

func (r *RetryGateway) VoidOrder(ctx context.Context, orderID string, correlationID string) (*OrderResource, error) {
	return r.inner.VoidOrder(ctx, orderID, correlationID)
}

func (r *RetryGateway) RefundCapture(ctx context.Context, captureID string, req *RefundRequest, correlationID string) (*RefundResource, error) {
	return r.inner.RefundCapture(ctx, captureID, req, correlationID)
}

func (r *RetryGateway) CreatePlan(ctx context.Context, req *BillingPlanRequest, correlationID string) (*BillingPlan, error) {
	return r.inner.CreatePlan(ctx, req, correlationID)
}

func (r *RetryGateway) ActivatePlan(ctx context.Context, planID string) error {
	// State patch to ACTIVE is idempotent at the provider.
	_, err := retry(r, ctx, func(ctx context.Context) (*struct{}, error) {
		return &struct{}{}, r.inner.ActivatePlan(ctx, planID)
	})
	return err
}

func (r *RetryGateway) GetPlan(ctx context.Context, planID string) (*BillingPlan, error) {
	return retry(r, ctx, func(ctx context.Context) (*BillingPlan, error) {
		return r.inner.GetPlan(ctx, planID)
	})
}

func (r *RetryGateway) ListPlans(ctx context.Context, status string, page, pageSize int) (*BillingPlanList, error) {
	return retry(r, ctx, func(ctx context.Context) (*BillingPlanList, error) {
		return r.inner.ListPlans(ctx, status, page, pageSize)
	})
}

func (r *RetryGateway) CreateAgreement(ctx context.Context, req *BillingAgreementRequest, correlationID string) (*BillingAgreement, error) {
	return r.inner.CreateAgreement(ctx, req, correlationID)
}

func (r *RetryGateway) ExecuteAgreement(ctx context.Context, token string, correlationID string) (*BillingAgreement, error) {
	return r.inner.ExecuteAgreement(ctx, token, correlationID)
}

func (r *RetryGateway) GetAgreement(ctx context.Context, agreementID string) (*BillingAgreement, error) {
	return retry(r, ctx, func(ctx context.Context) (*BillingAgreement, error) {
		return r.inner.GetAgreement(ctx, agreementID)
	})
}

func (r *RetryGateway) CancelAgreement(ctx context.Context, agreementID, note string, correlationID string) error {
	return r.inner.CancelAgreement(ctx, agreementID, note, correlationID)
}

func (r *RetryGateway) BillAgreementBalance(ctx context.Context, agreementID string, req *BillBalanceRequest, correlationID string) error {
	return r.inner.BillAgreementBalance(ctx, agreementID, req, correlationID)
}

func (r *RetryGateway) ListAgreementTransactions(ctx context.Context, agreementID string, start, end time.Time) (*AgreementTransactionList, error) {
	return retry(r, ctx, func(ctx context.Context) (*AgreementTransactionList, error) {
		return r.inner.ListAgreementTransactions(ctx, agreementID, start, end)
	})
}

// Generic retry helper
func retry[T any](r *RetryGateway, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			time.Sleep(r.backoff(attempt))
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if gwErr, ok := IsGatewayError(err); ok {
		return gwErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Transport errors and deadline misses on a read are safe to retry.
	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryGateway) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(1000)) * time.Millisecond

	return base + jitter
}
