package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/paypal"
)

// mockGateway substitutes the live client in service tests. Behavior is
// overridden per test through the Fn fields; calls are counted so tests
// can assert how much remote traffic an operation produced.
type mockGateway struct {
	mu    sync.Mutex
	calls map[string]int

	CreatePaymentFn  func(ctx context.Context, req *paypal.PaymentRequest) (*paypal.Payment, error)
	ExecutePaymentFn func(ctx context.Context, paymentID string, req *paypal.ExecuteRequest) (*paypal.Payment, error)
	GetPaymentFn     func(ctx context.Context, paymentID string) (*paypal.Payment, error)
	GetOrderFn       func(ctx context.Context, orderID string) (*paypal.OrderResource, error)
	AuthorizeOrderFn func(ctx context.Context, orderID string, req *paypal.AuthorizationRequest) (*paypal.AuthorizationResource, error)
	CaptureOrderFn   func(ctx context.Context, orderID string, req *paypal.CaptureRequest) (*paypal.CaptureResource, error)
	VoidOrderFn      func(ctx context.Context, orderID string) (*paypal.OrderResource, error)
	RefundCaptureFn  func(ctx context.Context, captureID string, req *paypal.RefundRequest) (*paypal.RefundResource, error)

	CreatePlanFn   func(ctx context.Context, req *paypal.BillingPlanRequest) (*paypal.BillingPlan, error)
	ActivatePlanFn func(ctx context.Context, planID string) error
	GetPlanFn      func(ctx context.Context, planID string) (*paypal.BillingPlan, error)
	ListPlansFn    func(ctx context.Context, status string, page, pageSize int) (*paypal.BillingPlanList, error)

	CreateAgreementFn           func(ctx context.Context, req *paypal.BillingAgreementRequest) (*paypal.BillingAgreement, error)
	ExecuteAgreementFn          func(ctx context.Context, token string) (*paypal.BillingAgreement, error)
	GetAgreementFn              func(ctx context.Context, agreementID string) (*paypal.BillingAgreement, error)
	CancelAgreementFn           func(ctx context.Context, agreementID, note string) error
	BillAgreementBalanceFn      func(ctx context.Context, agreementID string, req *paypal.BillBalanceRequest) error
	ListAgreementTransactionsFn func(ctx context.Context, agreementID string, start, end time.Time) (*paypal.AgreementTransactionList, error)
}

func newMockGateway() *mockGateway {
	return &mockGateway{calls: make(map[string]int)}
}

func (m *mockGateway) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

func (m *mockGateway) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockGateway) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *mockGateway) CreatePayment(ctx context.Context, req *paypal.PaymentRequest, correlationID string) (*paypal.Payment, error) {
	m.record("CreatePayment")
	if m.CreatePaymentFn != nil {
		return m.CreatePaymentFn(ctx, req)
	}
	return &paypal.Payment{ID: "PAY-1", State: "created"}, nil
}

func (m *mockGateway) ExecutePayment(ctx context.Context, paymentID string, req *paypal.ExecuteRequest, correlationID string) (*paypal.Payment, error) {
	m.record("ExecutePayment")
	if m.ExecutePaymentFn != nil {
		return m.ExecutePaymentFn(ctx, paymentID, req)
	}
	return approvedPayment(paymentID, "O-1"), nil
}

func (m *mockGateway) GetPayment(ctx context.Context, paymentID string) (*paypal.Payment, error) {
	m.record("GetPayment")
	if m.GetPaymentFn != nil {
		return m.GetPaymentFn(ctx, paymentID)
	}
	return &paypal.Payment{ID: paymentID}, nil
}

func (m *mockGateway) GetOrder(ctx context.Context, orderID string) (*paypal.OrderResource, error) {
	m.record("GetOrder")
	if m.GetOrderFn != nil {
		return m.GetOrderFn(ctx, orderID)
	}
	return &paypal.OrderResource{ID: orderID, State: "PENDING"}, nil
}

func (m *mockGateway) AuthorizeOrder(ctx context.Context, orderID string, req *paypal.AuthorizationRequest, correlationID string) (*paypal.AuthorizationResource, error) {
	m.record("AuthorizeOrder")
	if m.AuthorizeOrderFn != nil {
		return m.AuthorizeOrderFn(ctx, orderID, req)
	}
	return &paypal.AuthorizationResource{ID: "AUTH-1", State: "authorized"}, nil
}

func (m *mockGateway) CaptureOrder(ctx context.Context, orderID string, req *paypal.CaptureRequest, correlationID string) (*paypal.CaptureResource, error) {
	m.record("CaptureOrder")
	if m.CaptureOrderFn != nil {
		return m.CaptureOrderFn(ctx, orderID, req)
	}
	return &paypal.CaptureResource{ID: "CAP-1", State: "completed"}, nil
}

func (m *mockGateway) VoidOrder(ctx context.Context, orderID string, correlationID string) (*paypal.OrderResource, error) {
	m.record("VoidOrder")
	if m.VoidOrderFn != nil {
		return m.VoidOrderFn(ctx, orderID)
	}
	return &paypal.OrderResource{ID: orderID, State: paypal.OrderStateVoided}, nil
}

func (m *mockGateway) RefundCapture(ctx context.Context, captureID string, req *paypal.RefundRequest, correlationID string) (*paypal.RefundResource, error) {
	m.record("RefundCapture")
	if m.RefundCaptureFn != nil {
		return m.RefundCaptureFn(ctx, captureID, req)
	}
	return &paypal.RefundResource{ID: "REF-1", State: paypal.RefundStateCompleted}, nil
}

func (m *mockGateway) CreatePlan(ctx context.Context, req *paypal.BillingPlanRequest, correlationID string) (*paypal.BillingPlan, error) {
	m.record("CreatePlan")
	if m.CreatePlanFn != nil {
		return m.CreatePlanFn(ctx, req)
	}
	return &paypal.BillingPlan{ID: "P-1", State: "CREATED"}, nil
}

func (m *mockGateway) ActivatePlan(ctx context.Context, planID string) error {
	m.record("ActivatePlan")
	if m.ActivatePlanFn != nil {
		return m.ActivatePlanFn(ctx, planID)
	}
	return nil
}

func (m *mockGateway) GetPlan(ctx context.Context, planID string) (*paypal.BillingPlan, error) {
	m.record("GetPlan")
	if m.GetPlanFn != nil {
		return m.GetPlanFn(ctx, planID)
	}
	return &paypal.BillingPlan{ID: planID, State: paypal.PlanStateActive}, nil
}

func (m *mockGateway) ListPlans(ctx context.Context, status string, page, pageSize int) (*paypal.BillingPlanList, error) {
	m.record("ListPlans")
	if m.ListPlansFn != nil {
		return m.ListPlansFn(ctx, status, page, pageSize)
	}
	return &paypal.BillingPlanList{}, nil
}

func (m *mockGateway) CreateAgreement(ctx context.Context, req *paypal.BillingAgreementRequest, correlationID string) (*paypal.BillingAgreement, error) {
	m.record("CreateAgreement")
	if m.CreateAgreementFn != nil {
		return m.CreateAgreementFn(ctx, req)
	}
	return pendingAgreement("EC-1"), nil
}

func (m *mockGateway) ExecuteAgreement(ctx context.Context, token string, correlationID string) (*paypal.BillingAgreement, error) {
	m.record("ExecuteAgreement")
	if m.ExecuteAgreementFn != nil {
		return m.ExecuteAgreementFn(ctx, token)
	}
	return &paypal.BillingAgreement{ID: "I-1", State: "Active"}, nil
}

func (m *mockGateway) GetAgreement(ctx context.Context, agreementID string) (*paypal.BillingAgreement, error) {
	m.record("GetAgreement")
	if m.GetAgreementFn != nil {
		return m.GetAgreementFn(ctx, agreementID)
	}
	return &paypal.BillingAgreement{ID: agreementID, State: "Active"}, nil
}

func (m *mockGateway) CancelAgreement(ctx context.Context, agreementID, note string, correlationID string) error {
	m.record("CancelAgreement")
	if m.CancelAgreementFn != nil {
		return m.CancelAgreementFn(ctx, agreementID, note)
	}
	return nil
}

func (m *mockGateway) BillAgreementBalance(ctx context.Context, agreementID string, req *paypal.BillBalanceRequest, correlationID string) error {
	m.record("BillAgreementBalance")
	if m.BillAgreementBalanceFn != nil {
		return m.BillAgreementBalanceFn(ctx, agreementID, req)
	}
	return nil
}

func (m *mockGateway) ListAgreementTransactions(ctx context.Context, agreementID string, start, end time.Time) (*paypal.AgreementTransactionList, error) {
	m.record("ListAgreementTransactions")
	if m.ListAgreementTransactionsFn != nil {
		return m.ListAgreementTransactionsFn(ctx, agreementID, start, end)
	}
	return &paypal.AgreementTransactionList{}, nil
}

var _ paypal.Gateway = (*mockGateway)(nil)

func approvedPayment(paymentID, orderID string) *paypal.Payment {
	return &paypal.Payment{
		ID:    paymentID,
		State: "approved",
		Payer: &paypal.Payer{
			PaymentMethod: "paypal",
			PayerInfo: &paypal.PayerInfo{
				Email:     "buyer@example.com",
				FirstName: "Ana",
				LastName:  "Lovelace",
			},
		},
		Transactions: []paypal.Transaction{
			{
				RelatedResources: []paypal.RelatedResource{
					{Order: &paypal.OrderResource{ID: orderID, State: "PENDING"}},
				},
			},
		},
	}
}

func pendingAgreement(token string) *paypal.BillingAgreement {
	return &paypal.BillingAgreement{
		State: "Pending",
		Links: []paypal.Link{
			{Rel: "approval_url", Href: "https://www.sandbox.paypal.com/cgi-bin/webscr?cmd=_express-checkout&token=" + token},
			{Rel: "execute", Href: "https://api.sandbox.paypal.com/v1/payments/billing-agreements/" + token + "/agreement-execute", Method: "POST"},
		},
	}
}
