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

// SubscriptionOrchestrator drives the recurring-billing flow: billing plan
// provisioning with the hash-keyed idempotency cache, agreement setup and
// the agreement lifecycle calls.
type SubscriptionOrchestrator struct {
	states  application.StateRepository
	plans   application.PlanRepository
	history application.HistoryRecorder
	events  application.EventPublisher
	gateway paypal.Gateway
	cfg     config.PayPalConfig
	locks   *orderLocks
	logger  *slog.Logger

	// now is swapped in tests so cycle simulation is deterministic.
	now func() time.Time
}

func NewSubscriptionOrchestrator(
	states application.StateRepository,
	plans application.PlanRepository,
	history application.HistoryRecorder,
	events application.EventPublisher,
	gateway paypal.Gateway,
	cfg config.PayPalConfig,
	logger *slog.Logger,
) *SubscriptionOrchestrator {
	return &SubscriptionOrchestrator{
		states:  states,
		plans:   plans,
		history: history,
		events:  events,
		gateway: gateway,
		cfg:     cfg,
		locks:   newOrderLocks(),
		logger:  logger.With("service", "subscription_orchestrator"),
		now:     time.Now,
	}
}

// CreateBillingPlanFromOrder returns the active billing plan for the
// order's signature, creating it at the gateway exactly once. The lock is
// keyed on the signature hash, so two orders resolving to the same plan
// cannot race a duplicate create.
func (s *SubscriptionOrchestrator) CreateBillingPlanFromOrder(ctx context.Context, order *domain.Order) (*domain.BillingPlan, error) {
	recurring, err := ParseRecurringPlan(order)
	if err != nil {
		return nil, application.NewPlanConfigurationError(err)
	}

	sig := domain.NewPlanSignature(order, s.cfg.Sandbox())
	hash := sig.IdentificationHash()

	release := s.locks.Lock(hash)
	defer release()

	cached, err := s.plans.FindByHash(ctx, hash)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if cached != nil {
		s.logger.Debug("billing plan cache hit", "hash", hash, "plan_id", cached.ProviderPlanID)
		return cached, nil
	}

	cycles := planCycles(recurring, s.now())
	req := buildPlanRequest(order, recurring, cycles, s.cfg.ReturnURL, s.cfg.CancelURL)

	remote, err := s.gateway.CreatePlan(ctx, req, uuid.NewString())
	if err != nil {
		s.history.Record(ctx, order.Ref, "plan.create.failed", err.Error())
		return nil, application.NewGatewayError(err)
	}

	plan := &domain.BillingPlan{
		IdentificationHash: hash,
		ProviderPlanID:     remote.ID,
		Name:               recurring.Name,
		State:              remote.State,
		CreatedAt:          time.Now(),
	}
	// Persist before activation: a crash between the two leaves a CREATED
	// row pointing at the remote plan instead of an orphaned remote plan.
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, application.NewInternalError(err)
	}

	if err := s.gateway.ActivatePlan(ctx, remote.ID); err != nil {
		s.history.Record(ctx, order.Ref, "plan.activate.failed", err.Error())
		return nil, application.NewGatewayError(err)
	}

	plan.State = paypal.PlanStateActive
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.history.Record(ctx, order.Ref, "plan.created", remote.ID)
	s.logger.Info("billing plan created", "hash", hash, "plan_id", remote.ID)

	return plan, nil
}

// CreateSubscriptionResult carries what the checkout needs to send the
// shopper off to approve the agreement.
type CreateSubscriptionResult struct {
	AgreementToken string
	ApprovalURL    string
}

// CreateSubscription provisions the billing plan and creates the pending
// agreement. The first billing date is the first calendar slot after now,
// since the initial period is settled by the regular payment flow.
func (s *SubscriptionOrchestrator) CreateSubscription(ctx context.Context, order *domain.Order) (*CreateSubscriptionResult, error) {
	plan, err := s.CreateBillingPlanFromOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	recurring, err := ParseRecurringPlan(order)
	if err != nil {
		return nil, application.NewPlanConfigurationError(err)
	}

	startDate := advance(s.now(), recurring)

	agreement, err := s.gateway.CreateAgreement(ctx, &paypal.BillingAgreementRequest{
		Name:        recurring.Name,
		Description: order.Description,
		StartDate:   startDate.UTC().Format(time.RFC3339),
		Payer:       &paypal.Payer{PaymentMethod: "paypal"},
		Plan:        &paypal.PlanRef{ID: plan.ProviderPlanID},
	}, uuid.NewString())
	if err != nil {
		s.history.Record(ctx, order.Ref, "agreement.create.failed", err.Error())
		return nil, application.NewGatewayError(err)
	}

	approvalURL := linkByRel(agreement.Links, "approval_url")
	token := agreementToken(agreement.Links)
	if token == "" {
		return nil, application.NewInternalError(
			fmt.Errorf("agreement response carries no execute token"))
	}

	s.history.Record(ctx, order.Ref, "agreement.created", token)
	s.logger.Info("billing agreement created", "order_ref", order.Ref, "token", token)

	return &CreateSubscriptionResult{AgreementToken: token, ApprovalURL: approvalURL}, nil
}

// ExecuteBillingAgreement activates the agreement after shopper approval
// and attaches the agreement id to the order's payment state.
func (s *SubscriptionOrchestrator) ExecuteBillingAgreement(ctx context.Context, orderRef, token string) (*domain.OrderPaymentState, error) {
	release := s.locks.Lock(orderRef)
	defer release()

	state, err := s.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	if state.AgreementID != "" {
		s.logger.Info("agreement already executed", "order_ref", orderRef, "agreement_id", state.AgreementID)
		return state, nil
	}

	agreement, err := s.gateway.ExecuteAgreement(ctx, token, uuid.NewString())
	if err != nil {
		s.history.Record(ctx, orderRef, "agreement.execute.failed", err.Error())
		return nil, application.NewGatewayError(err)
	}

	state.SetAgreement(agreement.ID)
	if err := s.states.Save(ctx, state); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.events.Publish(ctx, domain.AgreementActivatedEvent{
		OrderRef:    orderRef,
		AgreementID: agreement.ID,
	})
	s.history.Record(ctx, orderRef, "agreement.executed", agreement.ID)
	s.logger.Info("billing agreement executed", "order_ref", orderRef, "agreement_id", agreement.ID)

	return state, nil
}

// CancelBillingAgreement cancels the order's agreement. Cancelling twice
// is fine: when the gateway rejects the call because the agreement is no
// longer active, the remote state is checked and an already-terminated
// agreement counts as success.
func (s *SubscriptionOrchestrator) CancelBillingAgreement(ctx context.Context, orderRef, note string) error {
	release := s.locks.Lock(orderRef)
	defer release()

	state, err := s.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return application.NewInternalError(err)
	}
	if state.AgreementID == "" {
		return application.NewAgreementNotFoundError("")
	}

	err = s.gateway.CancelAgreement(ctx, state.AgreementID, note, uuid.NewString())
	if err == nil {
		s.history.Record(ctx, orderRef, "agreement.cancelled", state.AgreementID)
		s.logger.Info("billing agreement cancelled", "order_ref", orderRef, "agreement_id", state.AgreementID)
		return nil
	}

	if paypal.HasErrorName(err, "STATUS_INVALID", "AGREEMENT_ALREADY_CANCELLED") {
		remote, gerr := s.gateway.GetAgreement(ctx, state.AgreementID)
		if gerr == nil && isTerminalAgreementState(remote.State) {
			s.logger.Info("agreement already cancelled", "order_ref", orderRef, "agreement_id", state.AgreementID)
			return nil
		}
	}

	s.history.Record(ctx, orderRef, "agreement.cancel.failed", err.Error())
	return application.NewGatewayError(err)
}

// GetBillingAgreement fetches the live agreement for an order.
func (s *SubscriptionOrchestrator) GetBillingAgreement(ctx context.Context, orderRef string) (*paypal.BillingAgreement, error) {
	state, err := s.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if state.AgreementID == "" {
		return nil, application.NewAgreementNotFoundError("")
	}

	agreement, err := s.gateway.GetAgreement(ctx, state.AgreementID)
	if err != nil {
		if gwErr, ok := paypal.IsGatewayError(err); ok && gwErr.StatusCode == 404 {
			return nil, application.NewAgreementNotFoundError(state.AgreementID)
		}
		return nil, application.NewGatewayError(err)
	}
	return agreement, nil
}

// BillOutstandingBalance charges whatever balance accumulated from failed
// cycles. A zero balance is a no-op.
func (s *SubscriptionOrchestrator) BillOutstandingBalance(ctx context.Context, orderRef, note string) error {
	agreement, err := s.GetBillingAgreement(ctx, orderRef)
	if err != nil {
		return err
	}

	details := agreement.AgreementDetails
	if details == nil || details.OutstandingBalance == nil || details.OutstandingBalance.Value == "" {
		return nil
	}
	balance, err := domain.MoneyFromString(details.OutstandingBalance.Value, details.OutstandingBalance.Currency)
	if err != nil || balance.IsZero() {
		return nil
	}

	err = s.gateway.BillAgreementBalance(ctx, agreement.ID, &paypal.BillBalanceRequest{
		Note:   note,
		Amount: details.OutstandingBalance,
	}, uuid.NewString())
	if err != nil {
		s.history.Record(ctx, orderRef, "agreement.bill_balance.failed", err.Error())
		return application.NewGatewayError(err)
	}

	s.history.Record(ctx, orderRef, "agreement.balance_billed", balance.String())
	s.logger.Info("outstanding balance billed", "order_ref", orderRef, "amount", balance.String())
	return nil
}

// ListTransactions returns the agreement's billing history in the window.
func (s *SubscriptionOrchestrator) ListTransactions(ctx context.Context, orderRef string, start, end time.Time) ([]paypal.AgreementTransaction, error) {
	state, err := s.states.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if state.AgreementID == "" {
		return nil, application.NewAgreementNotFoundError("")
	}

	list, err := s.gateway.ListAgreementTransactions(ctx, state.AgreementID, start, end)
	if err != nil {
		return nil, application.NewGatewayError(err)
	}
	return list.Transactions, nil
}

func isTerminalAgreementState(state string) bool {
	return strings.EqualFold(state, domain.AgreementStateCancelled) ||
		strings.EqualFold(state, domain.AgreementStateExpired)
}

// agreementToken pulls the execute token out of the agreement links. The
// execute link ends in /agreements/{token}/agreement-execute.
func agreementToken(links []paypal.Link) string {
	href := linkByRel(links, "execute")
	if href == "" {
		// Fall back to the approval redirect's token query parameter.
		href = linkByRel(links, "approval_url")
		if i := strings.Index(href, "token="); i >= 0 {
			token := href[i+len("token="):]
			if j := strings.IndexByte(token, '&'); j >= 0 {
				token = token[:j]
			}
			return token
		}
		return ""
	}

	parts := strings.Split(strings.TrimSuffix(href, "/agreement-execute"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
