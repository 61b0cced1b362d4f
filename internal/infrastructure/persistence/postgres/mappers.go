package postgres

import (
	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

func toStateModel(state *domain.OrderPaymentState) PaymentStateModel {
	return PaymentStateModel{
		OrderRef:          state.OrderRef,
		PaymentID:         state.PaymentID,
		PayerID:           state.PayerID,
		PayerEmail:        state.Payer.Email,
		PayerFirstName:    state.Payer.FirstName,
		PayerLastName:     state.Payer.LastName,
		ProviderOrderID:   state.ProviderOrderID,
		AuthorizationID:   state.AuthorizationID,
		CaptureID:         state.CaptureID,
		AgreementID:       state.AgreementID,
		PaymentSuccessful: state.PaymentSuccessful,
		RefundIDs:         state.RefundIDs,
		CreatedAt:         state.CreatedAt,
		UpdatedAt:         state.UpdatedAt,
	}
}

func toDomainState(m PaymentStateModel) *domain.OrderPaymentState {
	return &domain.OrderPaymentState{
		OrderRef:  m.OrderRef,
		PaymentID: m.PaymentID,
		PayerID:   m.PayerID,
		Payer: domain.PayerData{
			Email:     m.PayerEmail,
			FirstName: m.PayerFirstName,
			LastName:  m.PayerLastName,
		},
		ProviderOrderID:   m.ProviderOrderID,
		AuthorizationID:   m.AuthorizationID,
		CaptureID:         m.CaptureID,
		AgreementID:       m.AgreementID,
		PaymentSuccessful: m.PaymentSuccessful,
		RefundIDs:         m.RefundIDs,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toPlanModel(plan *domain.BillingPlan) BillingPlanModel {
	return BillingPlanModel{
		IdentificationHash: plan.IdentificationHash,
		ProviderPlanID:     plan.ProviderPlanID,
		Name:               plan.Name,
		State:              plan.State,
		CreatedAt:          plan.CreatedAt,
	}
}

func toDomainPlan(m BillingPlanModel) *domain.BillingPlan {
	return &domain.BillingPlan{
		IdentificationHash: m.IdentificationHash,
		ProviderPlanID:     m.ProviderPlanID,
		Name:               m.Name,
		State:              m.State,
		CreatedAt:          m.CreatedAt,
	}
}

func toLedgerModel(txn *domain.LedgerTransaction) LedgerModel {
	return LedgerModel{
		ID:              txn.ID,
		OrderRef:        txn.OrderRef,
		Kind:            string(txn.Kind),
		Status:          string(txn.Status),
		Amount:          txn.Amount.String(),
		Currency:        txn.Amount.Currency,
		Reason:          txn.Reason,
		ProviderOrderID: txn.ProviderOrderID,
		CaptureID:       txn.CaptureID,
		RefundID:        txn.RefundID,
		CreatedAt:       txn.CreatedAt,
		CompletedAt:     txn.CompletedAt,
	}
}

func toDomainLedger(m LedgerModel) (*domain.LedgerTransaction, error) {
	amount, err := domain.MoneyFromString(m.Amount, m.Currency)
	if err != nil {
		return nil, err
	}
	return &domain.LedgerTransaction{
		ID:              m.ID,
		OrderRef:        m.OrderRef,
		Kind:            domain.LedgerKind(m.Kind),
		Status:          domain.LedgerStatus(m.Status),
		Amount:          amount,
		Reason:          m.Reason,
		ProviderOrderID: m.ProviderOrderID,
		CaptureID:       m.CaptureID,
		RefundID:        m.RefundID,
		CreatedAt:       m.CreatedAt,
		CompletedAt:     m.CompletedAt,
	}, nil
}
