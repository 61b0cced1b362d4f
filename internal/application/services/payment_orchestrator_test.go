package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkoutkit/paypal-orchestrator/internal/application"
	"github.com/checkoutkit/paypal-orchestrator/internal/application/services"
	"github.com/checkoutkit/paypal-orchestrator/internal/config"
	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/paypal"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/persistence/memory"
)

type paymentFixture struct {
	orchestrator *services.PaymentOrchestrator
	gateway      *mockGateway
	states       *memory.StateRepository
	ledger       *memory.LedgerRepository
	history      *memory.HistoryRecorder
	events       *memory.EventPublisher
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	f := &paymentFixture{
		gateway: newMockGateway(),
		states:  memory.NewStateRepository(),
		ledger:  memory.NewLedgerRepository(),
		history: memory.NewHistoryRecorder(),
		events:  memory.NewEventPublisher(),
	}
	f.orchestrator = services.NewPaymentOrchestrator(
		f.states, f.ledger, f.history, f.events, f.gateway,
		testPayPalConfig(), testLogger(),
	)
	return f
}

func testPayPalConfig() config.PayPalConfig {
	return config.PayPalConfig{
		BaseURL:    "https://api.sandbox.paypal.com",
		ReturnURL:  "https://shop.example.com/checkout/return",
		CancelURL:  "https://shop.example.com/checkout/cancel",
		SubmitCart: true,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOrder(ref string) *domain.Order {
	return &domain.Order{
		Ref:      ref,
		Hash:     "h-" + ref,
		Currency: "EUR",
		Total:    decimal.RequireFromString("49.99"),
		Items: []domain.OrderItem{
			{ProductID: "sku-1", Name: "Widget", Quantity: 1, UnitPrice: decimal.RequireFromString("49.99")},
		},
	}
}

func eur(amount string) domain.Money {
	m, err := domain.MoneyFromString(amount, "EUR")
	if err != nil {
		panic(err)
	}
	return m
}

// executedState drives an order through create and execute so capture
// tests start from a known point.
func executedState(t *testing.T, f *paymentFixture, ref string) *domain.OrderPaymentState {
	t.Helper()
	ctx := context.Background()

	_, err := f.orchestrator.CreateOrder(ctx, services.KindStandard, testOrder(ref))
	require.NoError(t, err)

	state, err := f.orchestrator.ExecuteOrder(ctx, ref, "PAY-1", "PAYER-9")
	require.NoError(t, err)
	require.Equal(t, domain.StatusExecuted, state.Status())
	return state
}

func TestCreateOrder_Success(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	var captured *paypal.PaymentRequest
	f.gateway.CreatePaymentFn = func(ctx context.Context, req *paypal.PaymentRequest) (*paypal.Payment, error) {
		captured = req
		return &paypal.Payment{
			ID: "PAY-1",
			Links: []paypal.Link{
				{Rel: "approval_url", Href: "https://sandbox.paypal.com/approve?token=EC-1"},
			},
		}, nil
	}

	result, err := f.orchestrator.CreateOrder(ctx, services.KindStandard, testOrder("order-1"))
	require.NoError(t, err)

	assert.Equal(t, "PAY-1", result.PaymentID)
	assert.Equal(t, "https://sandbox.paypal.com/approve?token=EC-1", result.ApprovalURL)

	require.NotNil(t, captured)
	assert.Equal(t, "order", captured.Intent)
	require.Len(t, captured.Transactions, 1)
	assert.Equal(t, "49.99", captured.Transactions[0].Amount.Total)
	assert.Equal(t, "EUR", captured.Transactions[0].Amount.Currency)
	// Gross order without shipping: no details block at all.
	assert.Nil(t, captured.Transactions[0].Amount.Details)
	assert.Equal(t, "h-order-1", captured.Transactions[0].InvoiceNumber)

	state, err := f.states.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, state.Status())
}

func TestCreateOrder_ShippingProducesDetails(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	var captured *paypal.PaymentRequest
	f.gateway.CreatePaymentFn = func(ctx context.Context, req *paypal.PaymentRequest) (*paypal.Payment, error) {
		captured = req
		return &paypal.Payment{ID: "PAY-1"}, nil
	}

	order := testOrder("order-1")
	order.Total = decimal.RequireFromString("54.98")
	order.ShippingCost = decimal.RequireFromString("4.99")

	_, err := f.orchestrator.CreateOrder(ctx, services.KindStandard, order)
	require.NoError(t, err)

	details := captured.Transactions[0].Amount.Details
	require.NotNil(t, details)
	assert.Equal(t, "4.99", details.Shipping)
	assert.Equal(t, "49.99", details.Subtotal)
	assert.Equal(t, "54.98", captured.Transactions[0].Amount.Total)
}

func TestCreateOrder_RecreateVoidsPrior(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")

	paymentIDs := []string{"PAY-2"}
	f.gateway.CreatePaymentFn = func(ctx context.Context, req *paypal.PaymentRequest) (*paypal.Payment, error) {
		id := paymentIDs[0]
		return &paypal.Payment{ID: id}, nil
	}

	result, err := f.orchestrator.CreateOrder(ctx, services.KindStandard, testOrder("order-1"))
	require.NoError(t, err)

	assert.Equal(t, "PAY-2", result.PaymentID)
	assert.Equal(t, 1, f.gateway.callCount("VoidOrder"))

	state, err := f.states.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "PAY-2", state.PaymentID)
	assert.Empty(t, state.ProviderOrderID)
}

func TestExecuteOrder_ExtractsProviderOrderID(t *testing.T) {
	f := newPaymentFixture(t)

	f.gateway.ExecutePaymentFn = func(ctx context.Context, paymentID string, req *paypal.ExecuteRequest) (*paypal.Payment, error) {
		return approvedPayment(paymentID, "O-77"), nil
	}

	state := executedState(t, f, "order-1")

	assert.Equal(t, "O-77", state.ProviderOrderID)
	assert.Equal(t, "PAYER-9", state.PayerID)
	assert.Equal(t, "buyer@example.com", state.Payer.Email)
}

func TestExecuteOrder_SecondCallIsNoOp(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")
	before := f.gateway.callCount("ExecutePayment")

	state, err := f.orchestrator.ExecuteOrder(ctx, "order-1", "PAY-1", "PAYER-9")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusExecuted, state.Status())
	assert.Equal(t, before, f.gateway.callCount("ExecutePayment"))
}

func TestExecuteOrder_MismatchedPaymentID(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	_, err := f.orchestrator.CreateOrder(ctx, services.KindStandard, testOrder("order-1"))
	require.NoError(t, err)
	remoteCalls := f.gateway.totalCalls()

	_, err = f.orchestrator.ExecuteOrder(ctx, "order-1", "PAY-FORGED", "PAYER-9")
	require.Error(t, err)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeOrderMismatch, svcErr.Code)
	// Rejected before any remote traffic.
	assert.Equal(t, remoteCalls, f.gateway.totalCalls())
}

func TestExecuteOrder_NotApprovedVoidsPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	_, err := f.orchestrator.CreateOrder(ctx, services.KindStandard, testOrder("order-1"))
	require.NoError(t, err)

	f.gateway.ExecutePaymentFn = func(ctx context.Context, paymentID string, req *paypal.ExecuteRequest) (*paypal.Payment, error) {
		p := approvedPayment(paymentID, "O-1")
		p.State = "failed"
		return p, nil
	}

	_, err = f.orchestrator.ExecuteOrder(ctx, "order-1", "PAY-1", "PAYER-9")
	require.Error(t, err)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeOrderNotApproved, svcErr.Code)

	state, err := f.states.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, state.Status())
}

func TestAuthorizeOrder_Success(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")

	state, err := f.orchestrator.AuthorizeOrder(ctx, "order-1", eur("49.99"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAuthorized, state.Status())
	assert.Equal(t, "AUTH-1", state.AuthorizationID)
}

func TestCaptureOrder_Success(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")

	state, err := f.orchestrator.CaptureOrder(ctx, "order-1", eur("49.99"))
	require.NoError(t, err)

	assert.True(t, state.PaymentSuccessful)
	assert.Equal(t, "CAP-1", state.CaptureID)

	rows, err := f.ledger.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.LedgerPayment, rows[0].Kind)
	assert.Equal(t, domain.LedgerCompleted, rows[0].Status)
	assert.Equal(t, "49.99", rows[0].Amount.String())

	events := f.events.Events()
	require.Len(t, events, 1)
	captured, ok := events[0].(domain.PaymentCapturedEvent)
	require.True(t, ok)
	assert.Equal(t, "CAP-1", captured.CaptureID)
}

func TestCaptureOrder_SecondCallIsNoOp(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")

	_, err := f.orchestrator.CaptureOrder(ctx, "order-1", eur("49.99"))
	require.NoError(t, err)
	before := f.gateway.callCount("CaptureOrder")

	state, err := f.orchestrator.CaptureOrder(ctx, "order-1", eur("49.99"))
	require.NoError(t, err)

	assert.True(t, state.PaymentSuccessful)
	assert.Equal(t, before, f.gateway.callCount("CaptureOrder"))
}

func TestCaptureOrder_AmbiguousFailureReconciledAsSuccess(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")

	f.gateway.CaptureOrderFn = func(ctx context.Context, orderID string, req *paypal.CaptureRequest) (*paypal.CaptureResource, error) {
		return nil, &paypal.GatewayError{Name: "INTERNAL_SERVICE_ERROR", StatusCode: 503}
	}
	f.gateway.GetOrderFn = func(ctx context.Context, orderID string) (*paypal.OrderResource, error) {
		return &paypal.OrderResource{
			ID:    orderID,
			State: "COMPLETED",
			RelatedResources: []paypal.RelatedResource{
				{Capture: &paypal.CaptureResource{ID: "CAP-RECOVERED", State: "completed"}},
			},
		}, nil
	}

	state, err := f.orchestrator.CaptureOrder(ctx, "order-1", eur("49.99"))
	require.NoError(t, err)

	assert.True(t, state.PaymentSuccessful)
	assert.Equal(t, "CAP-RECOVERED", state.CaptureID)
	assert.Equal(t, 0, f.gateway.callCount("VoidOrder"))
}

func TestCaptureOrder_AmbiguousFailureReconciledAsFailure(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")

	f.gateway.CaptureOrderFn = func(ctx context.Context, orderID string, req *paypal.CaptureRequest) (*paypal.CaptureResource, error) {
		return nil, &paypal.GatewayError{Name: "INTERNAL_SERVICE_ERROR", StatusCode: 503}
	}
	f.gateway.GetOrderFn = func(ctx context.Context, orderID string) (*paypal.OrderResource, error) {
		return &paypal.OrderResource{ID: orderID, State: "PENDING"}, nil
	}

	_, err := f.orchestrator.CaptureOrder(ctx, "order-1", eur("49.99"))
	require.Error(t, err)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeOrderNotCaptured, svcErr.Code)
	assert.Equal(t, 1, f.gateway.callCount("VoidOrder"))

	state, err := f.states.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, state.Status())
}

func TestCaptureOrder_ReconciliationFailureVoidsOrder(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")

	f.gateway.CaptureOrderFn = func(ctx context.Context, orderID string, req *paypal.CaptureRequest) (*paypal.CaptureResource, error) {
		return nil, &paypal.GatewayError{Name: "INTERNAL_SERVICE_ERROR", StatusCode: 503}
	}
	// The follow-up order lookup is down as well; the charge is abandoned
	// rather than left in limbo.
	f.gateway.GetOrderFn = func(ctx context.Context, orderID string) (*paypal.OrderResource, error) {
		return nil, &paypal.GatewayError{Name: "INTERNAL_SERVICE_ERROR", StatusCode: 503}
	}

	_, err := f.orchestrator.CaptureOrder(ctx, "order-1", eur("49.99"))
	require.Error(t, err)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeOrderNotCaptured, svcErr.Code)
	assert.Equal(t, 1, f.gateway.callCount("VoidOrder"))

	state, err := f.states.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, state.Status())
	assert.Empty(t, state.PaymentID)
	assert.Empty(t, state.ProviderOrderID)
}

func TestRefund_FailsFastWithoutCapture(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")
	remoteCalls := f.gateway.totalCalls()

	_, err := f.orchestrator.Refund(ctx, "order-1", eur("10.00"), "damaged item")
	require.Error(t, err)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeRefundNotCaptured, svcErr.Code)
	assert.Equal(t, remoteCalls, f.gateway.totalCalls())

	rows, err := f.ledger.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRefund_Success(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")
	_, err := f.orchestrator.CaptureOrder(ctx, "order-1", eur("49.99"))
	require.NoError(t, err)

	var refundedCapture string
	f.gateway.RefundCaptureFn = func(ctx context.Context, captureID string, req *paypal.RefundRequest) (*paypal.RefundResource, error) {
		refundedCapture = captureID
		return &paypal.RefundResource{ID: "REF-9", State: "completed"}, nil
	}

	state, err := f.orchestrator.Refund(ctx, "order-1", eur("10.00"), "damaged item")
	require.NoError(t, err)

	assert.Equal(t, "CAP-1", refundedCapture)
	assert.Equal(t, []string{"REF-9"}, state.RefundIDs)
	assert.True(t, state.PaymentSuccessful)

	rows, err := f.ledger.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	refundRow := rows[1]
	assert.Equal(t, domain.LedgerRefund, refundRow.Kind)
	assert.Equal(t, domain.LedgerCompleted, refundRow.Status)
	assert.Equal(t, "REF-9", refundRow.RefundID)
	assert.Equal(t, "damaged item", refundRow.Reason)
}

func TestRefund_RejectedMarksLedgerErred(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")
	_, err := f.orchestrator.CaptureOrder(ctx, "order-1", eur("49.99"))
	require.NoError(t, err)

	f.gateway.RefundCaptureFn = func(ctx context.Context, captureID string, req *paypal.RefundRequest) (*paypal.RefundResource, error) {
		return &paypal.RefundResource{ID: "REF-9", State: "failed"}, nil
	}

	_, err = f.orchestrator.Refund(ctx, "order-1", eur("10.00"), "")
	require.Error(t, err)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeOrderNotRefunded, svcErr.Code)

	rows, err := f.ledger.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.LedgerErred, rows[1].Status)

	state, err := f.states.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Empty(t, state.RefundIDs)
}

func TestVoidOrder_WithoutRemoteOrder(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	_, err := f.orchestrator.CreateOrder(ctx, services.KindStandard, testOrder("order-1"))
	require.NoError(t, err)

	state, err := f.orchestrator.VoidOrder(ctx, "order-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusEmpty, state.Status())
	// Nothing executed yet, so there is no remote order to void.
	assert.Equal(t, 0, f.gateway.callCount("VoidOrder"))
}

func TestVoidOrder_CapturedPaymentRejected(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")
	_, err := f.orchestrator.CaptureOrder(ctx, "order-1", eur("49.99"))
	require.NoError(t, err)

	_, err = f.orchestrator.VoidOrder(ctx, "order-1")
	require.Error(t, err)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeInvalidState, svcErr.Code)
}

func TestReconcileOrder_ResolvesStuckCapture(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	executedState(t, f, "order-1")

	f.gateway.GetOrderFn = func(ctx context.Context, orderID string) (*paypal.OrderResource, error) {
		return &paypal.OrderResource{
			ID:     orderID,
			State:  "COMPLETED",
			Amount: &paypal.Amount{Total: "49.99", Currency: "EUR"},
			RelatedResources: []paypal.RelatedResource{
				{Capture: &paypal.CaptureResource{ID: "CAP-SWEPT"}},
			},
		}, nil
	}

	state, err := f.orchestrator.ReconcileOrder(ctx, "order-1")
	require.NoError(t, err)

	assert.True(t, state.PaymentSuccessful)
	assert.Equal(t, "CAP-SWEPT", state.CaptureID)
}
