package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/checkoutkit/paypal-orchestrator/internal/application"
	"github.com/checkoutkit/paypal-orchestrator/internal/config"
	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/paypal"
)

// PaymentOrchestrator drives the one-time payment lifecycle for an order:
// create, execute, optional authorize, capture, refund and void. All
// mutating flows hold the per-order lock, so concurrent callbacks for the
// same order serialize and the stored state decides idempotency.
type PaymentOrchestrator struct {
	states  application.StateRepository
	ledger  application.LedgerRepository
	history application.HistoryRecorder
	events  application.EventPublisher
	gateway paypal.Gateway
	cfg     config.PayPalConfig
	locks   *orderLocks
	logger  *slog.Logger
}

func NewPaymentOrchestrator(
	states application.StateRepository,
	ledger application.LedgerRepository,
	history application.HistoryRecorder,
	events application.EventPublisher,
	gateway paypal.Gateway,
	cfg config.PayPalConfig,
	logger *slog.Logger,
) *PaymentOrchestrator {
	return &PaymentOrchestrator{
		states:  states,
		ledger:  ledger,
		history: history,
		events:  events,
		gateway: gateway,
		cfg:     cfg,
		locks:   newOrderLocks(),
		logger:  logger.With("service", "payment_orchestrator"),
	}
}

// CreateOrderResult carries the provider payment id and the approval URL
// the shopper gets redirected to.
type CreateOrderResult struct {
	PaymentID   string
	ApprovalURL string
}

// CreateOrder creates a provider payment for the order and returns the
// approval redirect. If a payment already exists for the order it is
// voided first and a fresh one created, so a shopper who abandons the
// redirect and comes back never resumes a stale payment.
func (o *PaymentOrchestrator) CreateOrder(ctx context.Context, kind PaymentKind, order *domain.Order) (*CreateOrderResult, error) {
	release := o.locks.Lock(order.Ref)
	defer release()

	state, err := o.states.FindByOrderRef(ctx, order.Ref)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	if state.PaymentID != "" {
		o.logger.Info("payment already created, re-creating",
			"order_ref", order.Ref,
			"payment_id", state.PaymentID,
			"status", state.Status())
		if err := o.voidLocked(ctx, state); err != nil {
			return nil, err
		}
	}

	req := buildPaymentRequest(kind, order, o.cfg)

	payment, err := o.gateway.CreatePayment(ctx, req, uuid.NewString())
	if err != nil {
		o.history.Record(ctx, order.Ref, "payment.create.failed", err.Error())
		return nil, application.NewGatewayError(err)
	}

	if err := state.Create(payment.ID); err != nil {
		return nil, application.NewInvalidStateError(err)
	}
	if err := o.states.Save(ctx, state); err != nil {
		return nil, application.NewInternalError(err)
	}

	o.history.Record(ctx, order.Ref, "payment.created", payment.ID)
	o.logger.Info("payment created", "order_ref", order.Ref, "payment_id", payment.ID)

	return &CreateOrderResult{
		PaymentID:   payment.ID,
		ApprovalURL: linkByRel(payment.Links, "approval_url"),
	}, nil
}

// ExecuteOrder finalizes the payment after the shopper approved it and
// stores the provider order id needed for authorize/capture/void. A second
// delivery of the same callback is a no-op returning the stored state.
func (o *PaymentOrchestrator) ExecuteOrder(ctx context.Context, orderRef, paymentID, payerID string) (*domain.OrderPaymentState, error) {
	release := o.locks.Lock(orderRef)
	defer release()

	state, err := o.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	if state.ProviderOrderID != "" {
		o.logger.Info("payment already executed", "order_ref", orderRef)
		return state, nil
	}

	// Reject the callback before any remote call when the payment id does
	// not belong to this order.
	if state.PaymentID == "" || state.PaymentID != paymentID {
		return nil, application.NewOrderMismatchError(paymentID, state.PaymentID)
	}

	payment, err := o.gateway.ExecutePayment(ctx, paymentID, &paypal.ExecuteRequest{PayerID: payerID}, uuid.NewString())
	if err != nil {
		o.history.Record(ctx, orderRef, "payment.execute.failed", err.Error())
		return nil, application.NewGatewayError(err)
	}

	if !strings.EqualFold(payment.State, paypal.PaymentStateApproved) {
		o.history.Record(ctx, orderRef, "payment.execute.not_approved", payment.State)
		if err := o.voidLocked(ctx, state); err != nil {
			o.logger.Error("void after failed approval", "order_ref", orderRef, "error", err)
		}
		return nil, application.NewOrderNotApprovedError(payment.State)
	}

	providerOrderID := orderIDFromPayment(payment)
	if providerOrderID == "" {
		return nil, application.NewInternalError(
			fmt.Errorf("executed payment %s carries no order resource", paymentID))
	}

	if err := state.Execute(payerID, payerFromPayment(payment), providerOrderID); err != nil {
		return nil, application.NewInvalidStateError(err)
	}
	if err := o.states.Save(ctx, state); err != nil {
		return nil, application.NewInternalError(err)
	}

	o.history.Record(ctx, orderRef, "payment.executed", providerOrderID)
	o.logger.Info("payment executed",
		"order_ref", orderRef,
		"provider_order_id", providerOrderID,
		"payer_id", payerID)

	return state, nil
}

// AuthorizeOrder places an authorization hold on the executed order for
// the two-step ship-then-capture flow. Already-authorized orders return
// the stored state unchanged.
func (o *PaymentOrchestrator) AuthorizeOrder(ctx context.Context, orderRef string, amount domain.Money) (*domain.OrderPaymentState, error) {
	release := o.locks.Lock(orderRef)
	defer release()

	state, err := o.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	if state.AuthorizationID != "" {
		return state, nil
	}
	if state.ProviderOrderID == "" {
		return nil, application.NewInvalidStateError(
			domain.NewInvalidTransitionError(state.Status(), domain.StatusAuthorized))
	}

	auth, err := o.gateway.AuthorizeOrder(ctx, state.ProviderOrderID, &paypal.AuthorizationRequest{
		Amount: &paypal.Amount{Total: amount.String(), Currency: amount.Currency},
	}, uuid.NewString())
	if err != nil {
		o.history.Record(ctx, orderRef, "payment.authorize.failed", err.Error())
		return nil, application.NewOrderNotAuthorizedError(err)
	}

	if err := state.Authorize(auth.ID); err != nil {
		return nil, application.NewInvalidStateError(err)
	}
	if err := o.states.Save(ctx, state); err != nil {
		return nil, application.NewInternalError(err)
	}

	o.history.Record(ctx, orderRef, "payment.authorized", auth.ID)
	o.logger.Info("payment authorized", "order_ref", orderRef, "authorization_id", auth.ID)

	return state, nil
}

// CaptureOrder moves the money. On an ambiguous failure the remote order
// is queried before deciding: a remote state of COMPLETED or CAPTURED
// means the capture actually went through and is recorded as a success,
// anything else gets the order voided and the failure surfaced.
func (o *PaymentOrchestrator) CaptureOrder(ctx context.Context, orderRef string, amount domain.Money) (*domain.OrderPaymentState, error) {
	release := o.locks.Lock(orderRef)
	defer release()

	state, err := o.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	if state.PaymentSuccessful {
		o.logger.Info("payment already captured", "order_ref", orderRef)
		return state, nil
	}
	if state.ProviderOrderID == "" {
		return nil, application.NewInvalidStateError(
			domain.NewInvalidTransitionError(state.Status(), domain.StatusCaptured))
	}

	capture, err := o.gateway.CaptureOrder(ctx, state.ProviderOrderID, &paypal.CaptureRequest{
		Amount:         &paypal.Amount{Total: amount.String(), Currency: amount.Currency},
		IsFinalCapture: true,
	}, uuid.NewString())
	if err == nil {
		if cerr := o.completeCapture(ctx, state, capture.ID, amount); cerr != nil {
			return nil, cerr
		}
		return state, nil
	}

	o.history.Record(ctx, orderRef, "payment.capture.failed", err.Error())
	o.logger.Warn("capture failed, reconciling",
		"order_ref", orderRef,
		"provider_order_id", state.ProviderOrderID,
		"error", err)

	if !application.IsAmbiguous(err) {
		if verr := o.voidLocked(ctx, state); verr != nil {
			o.logger.Error("void after declined capture", "order_ref", orderRef, "error", verr)
		}
		return nil, application.NewOrderNotCapturedError(err)
	}

	return o.reconcileLocked(ctx, state, amount, err)
}

// ReconcileOrder resolves an order stuck between execute and capture by
// asking the provider what actually happened. Called by the capture
// sweeper for orders whose capture outcome was lost.
func (o *PaymentOrchestrator) ReconcileOrder(ctx context.Context, orderRef string) (*domain.OrderPaymentState, error) {
	release := o.locks.Lock(orderRef)
	defer release()

	state, err := o.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if state.PaymentSuccessful || state.ProviderOrderID == "" {
		return state, nil
	}

	remote, err := o.gateway.GetOrder(ctx, state.ProviderOrderID)
	if err != nil {
		return nil, application.NewGatewayError(err)
	}

	var amount domain.Money
	if remote.Amount != nil {
		if m, perr := domain.MoneyFromString(remote.Amount.Total, remote.Amount.Currency); perr == nil {
			amount = m
		}
	}

	return o.settleFromRemote(ctx, state, remote, amount)
}

// reconcileLocked is the ambiguous-capture path: the capture call failed
// in a way that leaves the remote outcome unknown, so the remote order
// decides. When the lookup fails too the charge is abandoned: void the
// order and surface the capture failure, never leave the shopper hanging
// on an outcome nobody can confirm.
func (o *PaymentOrchestrator) reconcileLocked(ctx context.Context, state *domain.OrderPaymentState, amount domain.Money, captureErr error) (*domain.OrderPaymentState, error) {
	remote, err := o.gateway.GetOrder(ctx, state.ProviderOrderID)
	if err != nil {
		o.history.Record(ctx, state.OrderRef, "payment.reconcile.failed", err.Error())
		if verr := o.voidLocked(ctx, state); verr != nil {
			o.logger.Error("void after failed reconciliation", "order_ref", state.OrderRef, "error", verr)
		}
		return nil, application.NewOrderNotCapturedError(captureErr)
	}
	return o.settleFromRemote(ctx, state, remote, amount)
}

func (o *PaymentOrchestrator) settleFromRemote(ctx context.Context, state *domain.OrderPaymentState, remote *paypal.OrderResource, amount domain.Money) (*domain.OrderPaymentState, error) {
	switch strings.ToUpper(remote.State) {
	case paypal.OrderStateCompleted, paypal.OrderStateCaptured:
		captureID := captureIDFromOrder(remote)
		if captureID == "" {
			captureID = o.captureIDFromPayment(ctx, state.PaymentID)
		}
		o.logger.Info("reconciliation confirmed capture",
			"order_ref", state.OrderRef,
			"capture_id", captureID)
		if err := o.completeCapture(ctx, state, captureID, amount); err != nil {
			return nil, err
		}
		return state, nil
	default:
		o.history.Record(ctx, state.OrderRef, "payment.reconcile.not_captured", remote.State)
		if err := o.voidLocked(ctx, state); err != nil {
			o.logger.Error("void after reconciliation", "order_ref", state.OrderRef, "error", err)
		}
		return nil, application.NewOrderNotCapturedError(
			fmt.Errorf("remote order in state %q after capture attempt", remote.State))
	}
}

func (o *PaymentOrchestrator) completeCapture(ctx context.Context, state *domain.OrderPaymentState, captureID string, amount domain.Money) error {
	if err := state.Capture(captureID); err != nil {
		return application.NewInvalidStateError(err)
	}
	if err := o.states.Save(ctx, state); err != nil {
		return application.NewInternalError(err)
	}

	now := time.Now()
	txn := &domain.LedgerTransaction{
		ID:              uuid.NewString(),
		OrderRef:        state.OrderRef,
		Kind:            domain.LedgerPayment,
		Status:          domain.LedgerCompleted,
		Amount:          amount,
		ProviderOrderID: state.ProviderOrderID,
		CaptureID:       captureID,
		CreatedAt:       now,
		CompletedAt:     &now,
	}
	if err := o.ledger.Create(ctx, txn); err != nil {
		o.logger.Error("ledger write failed", "order_ref", state.OrderRef, "error", err)
	}

	o.events.Publish(ctx, domain.PaymentCapturedEvent{
		OrderRef:        state.OrderRef,
		ProviderOrderID: state.ProviderOrderID,
		CaptureID:       captureID,
		Amount:          amount,
	})
	o.history.Record(ctx, state.OrderRef, "payment.captured", captureID)
	o.logger.Info("payment captured", "order_ref", state.OrderRef, "capture_id", captureID)

	return nil
}

// Refund refunds part or all of a captured payment. The precondition is
// checked against local state before any gateway call: an uncaptured order
// fails fast with zero remote traffic. The pending ledger row is written
// before the gateway call so a crash mid-refund leaves a trace.
func (o *PaymentOrchestrator) Refund(ctx context.Context, orderRef string, amount domain.Money, reason string) (*domain.OrderPaymentState, error) {
	release := o.locks.Lock(orderRef)
	defer release()

	state, err := o.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	if !state.PaymentSuccessful || state.CaptureID == "" {
		return nil, application.NewRefundNotCapturedError(orderRef)
	}

	txn := &domain.LedgerTransaction{
		ID:              uuid.NewString(),
		OrderRef:        orderRef,
		Kind:            domain.LedgerRefund,
		Status:          domain.LedgerPending,
		Amount:          amount,
		Reason:          reason,
		ProviderOrderID: state.ProviderOrderID,
		CaptureID:       state.CaptureID,
		CreatedAt:       time.Now(),
	}
	if err := o.ledger.Create(ctx, txn); err != nil {
		return nil, application.NewInternalError(err)
	}

	refund, err := o.gateway.RefundCapture(ctx, state.CaptureID, &paypal.RefundRequest{
		Amount:      &paypal.Currency{Currency: amount.Currency, Value: amount.String()},
		Description: reason,
	}, uuid.NewString())
	if err != nil {
		txn.Status = domain.LedgerErred
		if uerr := o.ledger.Update(ctx, txn); uerr != nil {
			o.logger.Error("ledger update failed", "order_ref", orderRef, "error", uerr)
		}
		o.history.Record(ctx, orderRef, "payment.refund.failed", err.Error())
		return nil, application.NewGatewayError(err)
	}

	switch strings.ToLower(refund.State) {
	case paypal.RefundStateCompleted, paypal.RefundStatePending:
		// Pending refunds settle on the provider side; treat both as
		// accepted.
	default:
		txn.Status = domain.LedgerErred
		if uerr := o.ledger.Update(ctx, txn); uerr != nil {
			o.logger.Error("ledger update failed", "order_ref", orderRef, "error", uerr)
		}
		o.history.Record(ctx, orderRef, "payment.refund.rejected", refund.State)
		return nil, application.NewOrderNotRefundedError(refund.State)
	}

	if err := state.AppendRefund(refund.ID); err != nil {
		return nil, application.NewInvalidStateError(err)
	}
	if err := o.states.Save(ctx, state); err != nil {
		return nil, application.NewInternalError(err)
	}

	now := time.Now()
	txn.Status = domain.LedgerCompleted
	txn.RefundID = refund.ID
	txn.CompletedAt = &now
	if err := o.ledger.Update(ctx, txn); err != nil {
		o.logger.Error("ledger update failed", "order_ref", orderRef, "error", err)
	}

	o.events.Publish(ctx, domain.PaymentRefundedEvent{
		OrderRef: orderRef,
		RefundID: refund.ID,
		Amount:   amount,
		Reason:   reason,
	})
	o.history.Record(ctx, orderRef, "payment.refunded", refund.ID)
	o.logger.Info("payment refunded", "order_ref", orderRef, "refund_id", refund.ID)

	return state, nil
}

// VoidOrder cancels an uncaptured payment and resets the order's payment
// state so a fresh create cycle can begin. Voiding an order that never
// executed just clears local state.
func (o *PaymentOrchestrator) VoidOrder(ctx context.Context, orderRef string) (*domain.OrderPaymentState, error) {
	release := o.locks.Lock(orderRef)
	defer release()

	state, err := o.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	if err := o.voidLocked(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// voidLocked voids the remote order (when one exists) and resets local
// state. Callers hold the order lock.
func (o *PaymentOrchestrator) voidLocked(ctx context.Context, state *domain.OrderPaymentState) error {
	if state.PaymentSuccessful {
		return application.NewInvalidStateError(
			domain.NewInvalidStateError("captured payments are refunded, not voided"))
	}

	if state.ProviderOrderID != "" {
		remote, err := o.gateway.VoidOrder(ctx, state.ProviderOrderID, uuid.NewString())
		if err != nil {
			o.history.Record(ctx, state.OrderRef, "payment.void.failed", err.Error())
			return application.NewGatewayError(err)
		}
		if !strings.EqualFold(remote.State, paypal.OrderStateVoided) {
			o.history.Record(ctx, state.OrderRef, "payment.void.rejected", remote.State)
			return application.NewInvalidStateError(
				domain.NewInvalidStateError(fmt.Sprintf("remote order in state %q after void", remote.State)))
		}
	}

	state.Reset()
	if err := o.states.Save(ctx, state); err != nil {
		return application.NewInternalError(err)
	}

	o.history.Record(ctx, state.OrderRef, "payment.voided", "")
	o.logger.Info("payment voided", "order_ref", state.OrderRef)

	return nil
}

// GetState returns the current payment state for an order.
func (o *PaymentOrchestrator) GetState(ctx context.Context, orderRef string) (*domain.OrderPaymentState, error) {
	state, err := o.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return state, nil
}

// captureIDFromPayment is the fallback when the order lookup carries no
// capture resource: walk the parent payment's related resources.
func (o *PaymentOrchestrator) captureIDFromPayment(ctx context.Context, paymentID string) string {
	if paymentID == "" {
		return ""
	}
	payment, err := o.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		o.logger.Warn("capture id lookup via payment failed", "payment_id", paymentID, "error", err)
		return ""
	}
	for _, txn := range payment.Transactions {
		for _, rr := range txn.RelatedResources {
			if rr.Capture != nil && rr.Capture.ID != "" {
				return rr.Capture.ID
			}
		}
	}
	return ""
}

func orderIDFromPayment(payment *paypal.Payment) string {
	for _, txn := range payment.Transactions {
		for _, rr := range txn.RelatedResources {
			if rr.Order != nil && rr.Order.ID != "" {
				return rr.Order.ID
			}
		}
	}
	return ""
}

func captureIDFromOrder(order *paypal.OrderResource) string {
	for _, rr := range order.RelatedResources {
		if rr.Capture != nil && rr.Capture.ID != "" {
			return rr.Capture.ID
		}
	}
	return ""
}

func payerFromPayment(payment *paypal.Payment) domain.PayerData {
	if payment.Payer == nil || payment.Payer.PayerInfo == nil {
		return domain.PayerData{}
	}
	info := payment.Payer.PayerInfo
	return domain.PayerData{
		Email:     info.Email,
		FirstName: info.FirstName,
		LastName:  info.LastName,
	}
}

func linkByRel(links []paypal.Link, rel string) string {
	for _, l := range links {
		if l.Rel == rel {
			return l.Href
		}
	}
	return ""
}
