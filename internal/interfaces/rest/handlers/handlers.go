package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/checkoutkit/paypal-orchestrator/internal/application"
	"github.com/checkoutkit/paypal-orchestrator/internal/application/services"
	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
	"github.com/checkoutkit/paypal-orchestrator/internal/interfaces/rest"
)

type Handlers struct {
	payments      *services.PaymentOrchestrator
	subscriptions *services.SubscriptionOrchestrator
	ledger        application.LedgerRepository
	validate      *validator.Validate
	logger        *slog.Logger
}

func NewHandlers(
	payments *services.PaymentOrchestrator,
	subscriptions *services.SubscriptionOrchestrator,
	ledger application.LedgerRepository,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		payments:      payments,
		subscriptions: subscriptions,
		ledger:        ledger,
		validate:      validator.New(),
		logger:        logger,
	}
}

// Register wires all routes onto the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/orders/{ref}/payment", h.CreatePayment)
	mux.HandleFunc("POST /api/v1/orders/{ref}/payment/execute", h.ExecutePayment)
	mux.HandleFunc("POST /api/v1/orders/{ref}/payment/authorize", h.AuthorizePayment)
	mux.HandleFunc("POST /api/v1/orders/{ref}/payment/capture", h.CapturePayment)
	mux.HandleFunc("POST /api/v1/orders/{ref}/payment/refund", h.RefundPayment)
	mux.HandleFunc("POST /api/v1/orders/{ref}/payment/void", h.VoidPayment)
	mux.HandleFunc("GET /api/v1/orders/{ref}/payment", h.GetPayment)
	mux.HandleFunc("GET /api/v1/orders/{ref}/ledger", h.GetLedger)

	mux.HandleFunc("POST /api/v1/orders/{ref}/subscription", h.CreateSubscription)
	mux.HandleFunc("POST /api/v1/orders/{ref}/subscription/execute", h.ExecuteSubscription)
	mux.HandleFunc("POST /api/v1/orders/{ref}/subscription/cancel", h.CancelSubscription)
	mux.HandleFunc("GET /api/v1/orders/{ref}/subscription", h.GetSubscription)
	mux.HandleFunc("POST /api/v1/orders/{ref}/subscription/bill-balance", h.BillOutstandingBalance)
	mux.HandleFunc("GET /api/v1/orders/{ref}/subscription/transactions", h.ListSubscriptionTransactions)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rest.WriteError(w, domain.NewMissingRequiredFieldError("request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		rest.WriteError(w, &application.ServiceError{
			Code:       "VALIDATION_ERROR",
			Message:    err.Error(),
			HTTPStatus: http.StatusBadRequest,
		})
		return false
	}
	return true
}

// OrderRequest is the host order snapshot as it arrives over the wire.
type OrderRequest struct {
	Hash         string `json:"hash" validate:"required"`
	CustomerID   string `json:"customer_id"`
	Language     string `json:"language"`
	Currency     string `json:"currency" validate:"required,len=3"`
	Total        string `json:"total" validate:"required"`
	ItemTotal    string `json:"item_total"`
	TaxTotal     string `json:"tax_total"`
	ShippingCost string `json:"shipping_cost"`
	NetCustomer  bool   `json:"net_customer"`
	Description  string `json:"description"`

	Items           []OrderItemRequest `json:"items"`
	PriceFactors    []OrderItemRequest `json:"price_factors"`
	ShippingAddress *AddressRequest    `json:"shipping_address"`

	Attributes map[string]any `json:"attributes"`
}

type OrderItemRequest struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name" validate:"required"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity" validate:"min=1"`
	UnitPrice   string `json:"unit_price" validate:"required"`
}

type AddressRequest struct {
	RecipientName string `json:"recipient_name"`
	Line1         string `json:"line1" validate:"required"`
	Line2         string `json:"line2"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	CountryCode   string `json:"country_code" validate:"required,len=2"`
	Phone         string `json:"phone"`
}

func (req *OrderRequest) toDomain(ref string) (*domain.Order, error) {
	total, err := decimal.NewFromString(req.Total)
	if err != nil {
		return nil, domain.NewInvalidAmountError(req.Total)
	}

	order := &domain.Order{
		Ref:         ref,
		Hash:        req.Hash,
		CustomerID:  req.CustomerID,
		Language:    req.Language,
		Currency:    req.Currency,
		Total:       total,
		NetCustomer: req.NetCustomer,
		Description: req.Description,
		Attributes:  req.Attributes,
	}

	if order.ItemTotal, err = optionalDecimal(req.ItemTotal); err != nil {
		return nil, domain.NewInvalidAmountError(req.ItemTotal)
	}
	if order.TaxTotal, err = optionalDecimal(req.TaxTotal); err != nil {
		return nil, domain.NewInvalidAmountError(req.TaxTotal)
	}
	if order.ShippingCost, err = optionalDecimal(req.ShippingCost); err != nil {
		return nil, domain.NewInvalidAmountError(req.ShippingCost)
	}

	for _, it := range req.Items {
		item, err := it.toDomain()
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	for _, pf := range req.PriceFactors {
		item, err := pf.toDomain()
		if err != nil {
			return nil, err
		}
		order.PriceFactors = append(order.PriceFactors, item)
	}

	if req.ShippingAddress != nil {
		order.ShippingAddress = &domain.Address{
			RecipientName: req.ShippingAddress.RecipientName,
			Line1:         req.ShippingAddress.Line1,
			Line2:         req.ShippingAddress.Line2,
			City:          req.ShippingAddress.City,
			State:         req.ShippingAddress.State,
			PostalCode:    req.ShippingAddress.PostalCode,
			CountryCode:   req.ShippingAddress.CountryCode,
			Phone:         req.ShippingAddress.Phone,
		}
	}

	return order, nil
}

func (req *OrderItemRequest) toDomain() (domain.OrderItem, error) {
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return domain.OrderItem{}, domain.NewInvalidAmountError(req.UnitPrice)
	}
	return domain.OrderItem{
		ProductID:   req.ProductID,
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   price,
	}, nil
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// PaymentStateResponse is the wire shape of an order's payment state.
type PaymentStateResponse struct {
	OrderRef          string   `json:"order_ref"`
	Status            string   `json:"status"`
	PaymentID         string   `json:"payment_id,omitempty"`
	PayerID           string   `json:"payer_id,omitempty"`
	ProviderOrderID   string   `json:"provider_order_id,omitempty"`
	AuthorizationID   string   `json:"authorization_id,omitempty"`
	CaptureID         string   `json:"capture_id,omitempty"`
	AgreementID       string   `json:"agreement_id,omitempty"`
	PaymentSuccessful bool     `json:"payment_successful"`
	RefundIDs         []string `json:"refund_ids,omitempty"`
}

func toStateResponse(state *domain.OrderPaymentState) PaymentStateResponse {
	return PaymentStateResponse{
		OrderRef:          state.OrderRef,
		Status:            string(state.Status()),
		PaymentID:         state.PaymentID,
		PayerID:           state.PayerID,
		ProviderOrderID:   state.ProviderOrderID,
		AuthorizationID:   state.AuthorizationID,
		CaptureID:         state.CaptureID,
		AgreementID:       state.AgreementID,
		PaymentSuccessful: state.PaymentSuccessful,
		RefundIDs:         state.RefundIDs,
	}
}
