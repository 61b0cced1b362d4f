package handlers

import (
	"net/http"
	"time"

	"github.com/checkoutkit/paypal-orchestrator/internal/application/services"
	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
	"github.com/checkoutkit/paypal-orchestrator/internal/interfaces/rest"
)

type CreatePaymentRequest struct {
	Kind  string       `json:"kind" validate:"omitempty,oneof=standard express"`
	Order OrderRequest `json:"order" validate:"required"`
}

type CreatePaymentResponse struct {
	PaymentID   string `json:"payment_id"`
	ApprovalURL string `json:"approval_url"`
}

func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	var req CreatePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := req.Order.toDomain(ref)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	kind := services.PaymentKind(req.Kind)
	if kind == "" {
		kind = services.KindStandard
	}

	result, err := h.payments.CreateOrder(r.Context(), kind, order)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, CreatePaymentResponse{
		PaymentID:   result.PaymentID,
		ApprovalURL: result.ApprovalURL,
	})
}

type ExecutePaymentRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	PayerID   string `json:"payer_id" validate:"required"`
}

func (h *Handlers) ExecutePayment(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	var req ExecutePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	state, err := h.payments.ExecuteOrder(r.Context(), ref, req.PaymentID, req.PayerID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toStateResponse(state))
}

type AmountRequest struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
}

func (req *AmountRequest) toMoney() (domain.Money, error) {
	return domain.MoneyFromString(req.Amount, req.Currency)
}

func (h *Handlers) AuthorizePayment(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	var req AmountRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := req.toMoney()
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	state, err := h.payments.AuthorizeOrder(r.Context(), ref, amount)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toStateResponse(state))
}

func (h *Handlers) CapturePayment(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	var req AmountRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := req.toMoney()
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	state, err := h.payments.CaptureOrder(r.Context(), ref, amount)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toStateResponse(state))
}

type RefundRequest struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
	Reason   string `json:"reason"`
}

func (h *Handlers) RefundPayment(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	var req RefundRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := domain.MoneyFromString(req.Amount, req.Currency)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	state, err := h.payments.Refund(r.Context(), ref, amount, req.Reason)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toStateResponse(state))
}

func (h *Handlers) VoidPayment(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	state, err := h.payments.VoidOrder(r.Context(), ref)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toStateResponse(state))
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	state, err := h.payments.GetState(r.Context(), ref)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toStateResponse(state))
}

type LedgerRowResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Reason      string `json:"reason,omitempty"`
	CaptureID   string `json:"capture_id,omitempty"`
	RefundID    string `json:"refund_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

func (h *Handlers) GetLedger(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	rows, err := h.ledger.FindByOrderRef(r.Context(), ref)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	out := make([]LedgerRowResponse, 0, len(rows))
	for _, row := range rows {
		resp := LedgerRowResponse{
			ID:        row.ID,
			Kind:      string(row.Kind),
			Status:    string(row.Status),
			Amount:    row.Amount.String(),
			Currency:  row.Amount.Currency,
			Reason:    row.Reason,
			CaptureID: row.CaptureID,
			RefundID:  row.RefundID,
			CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if row.CompletedAt != nil {
			resp.CompletedAt = row.CompletedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, resp)
	}

	rest.WriteJSON(w, http.StatusOK, out)
}
