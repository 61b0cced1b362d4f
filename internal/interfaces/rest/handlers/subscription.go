package handlers

import (
	"net/http"
	"time"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
	"github.com/checkoutkit/paypal-orchestrator/internal/interfaces/rest"
)

type CreateSubscriptionRequest struct {
	Order OrderRequest `json:"order" validate:"required"`
}

type CreateSubscriptionResponse struct {
	AgreementToken string `json:"agreement_token"`
	ApprovalURL    string `json:"approval_url"`
}

func (h *Handlers) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	var req CreateSubscriptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := req.Order.toDomain(ref)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	result, err := h.subscriptions.CreateSubscription(r.Context(), order)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, CreateSubscriptionResponse{
		AgreementToken: result.AgreementToken,
		ApprovalURL:    result.ApprovalURL,
	})
}

type ExecuteSubscriptionRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *Handlers) ExecuteSubscription(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	var req ExecuteSubscriptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	state, err := h.subscriptions.ExecuteBillingAgreement(r.Context(), ref, req.Token)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toStateResponse(state))
}

type CancelSubscriptionRequest struct {
	Note string `json:"note"`
}

func (h *Handlers) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	var req CancelSubscriptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.subscriptions.CancelBillingAgreement(r.Context(), ref, req.Note); err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, nil)
}

type SubscriptionResponse struct {
	AgreementID        string `json:"agreement_id"`
	State              string `json:"state"`
	NextBillingDate    string `json:"next_billing_date,omitempty"`
	OutstandingBalance string `json:"outstanding_balance,omitempty"`
	CyclesCompleted    string `json:"cycles_completed,omitempty"`
}

func (h *Handlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	agreement, err := h.subscriptions.GetBillingAgreement(r.Context(), ref)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	resp := SubscriptionResponse{
		AgreementID: agreement.ID,
		State:       agreement.State,
	}
	if details := agreement.AgreementDetails; details != nil {
		resp.NextBillingDate = details.NextBillingDate
		resp.CyclesCompleted = details.CyclesCompleted
		if details.OutstandingBalance != nil {
			resp.OutstandingBalance = details.OutstandingBalance.Value
		}
	}

	rest.WriteJSON(w, http.StatusOK, resp)
}

type BillBalanceRequest struct {
	Note string `json:"note"`
}

func (h *Handlers) BillOutstandingBalance(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	var req BillBalanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.subscriptions.BillOutstandingBalance(r.Context(), ref, req.Note); err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, nil)
}

type SubscriptionTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Type          string `json:"type,omitempty"`
	Amount        string `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// ListSubscriptionTransactions returns the agreement's billing history.
// Query parameters start and end are RFC3339 dates; the window defaults to
// the last 30 days.
func (h *Handlers) ListSubscriptionTransactions(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			rest.WriteError(w, domain.NewMissingRequiredFieldError("valid start date"))
			return
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			rest.WriteError(w, domain.NewMissingRequiredFieldError("valid end date"))
			return
		}
		end = t
	}

	txns, err := h.subscriptions.ListTransactions(r.Context(), ref, start, end)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	out := make([]SubscriptionTransactionResponse, 0, len(txns))
	for _, txn := range txns {
		resp := SubscriptionTransactionResponse{
			TransactionID: txn.TransactionID,
			Status:        txn.Status,
			Type:          txn.TransactionType,
			Timestamp:     txn.TimeStamp,
		}
		if txn.Amount != nil {
			resp.Amount = txn.Amount.Value
			resp.Currency = txn.Amount.Currency
		}
		out = append(out, resp)
	}

	rest.WriteJSON(w, http.StatusOK, out)
}
