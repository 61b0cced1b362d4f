package paypal

import (
	"context"
	"time"
)

// Gateway is the seam the orchestrators call through. *Client implements it
// against the live API; decorators wrap it; tests substitute a mock.
type Gateway interface {
	CreatePayment(ctx context.Context, req *PaymentRequest, correlationID string) (*Payment, error)
	ExecutePayment(ctx context.Context, paymentID string, req *ExecuteRequest, correlationID string) (*Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
	GetOrder(ctx context.Context, orderID string) (*OrderResource, error)
	AuthorizeOrder(ctx context.Context, orderID string, req *AuthorizationRequest, correlationID string) (*AuthorizationResource, error)
	CaptureOrder(ctx context.Context, orderID string, req *CaptureRequest, correlationID string) (*CaptureResource, error)
	VoidOrder(ctx context.Context, orderID string, correlationID string) (*OrderResource, error)
	RefundCapture(ctx context.Context, captureID string, req *RefundRequest, correlationID string) (*RefundResource, error)

	CreatePlan(ctx context.Context, req *BillingPlanRequest, correlationID string) (*BillingPlan, error)
	ActivatePlan(ctx context.Context, planID string) error
	GetPlan(ctx context.Context, planID string) (*BillingPlan, error)
	ListPlans(ctx context.Context, status string, page, pageSize int) (*BillingPlanList, error)

	CreateAgreement(ctx context.Context, req *BillingAgreementRequest, correlationID string) (*BillingAgreement, error)
	ExecuteAgreement(ctx context.Context, token string, correlationID string) (*BillingAgreement, error)
	GetAgreement(ctx context.Context, agreementID string) (*BillingAgreement, error)
	CancelAgreement(ctx context.Context, agreementID, note string, correlationID string) error
	BillAgreementBalance(ctx context.Context, agreementID string, req *BillBalanceRequest, correlationID string) error
	ListAgreementTransactions(ctx context.Context, agreementID string, start, end time.Time) (*AgreementTransactionList, error)
}

var _ Gateway = (*Client)(nil)
