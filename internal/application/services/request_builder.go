package services

import (
	"strconv"

	"github.com/checkoutkit/paypal-orchestrator/internal/config"
	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/paypal"
)

// PaymentKind tags the checkout variant a create request is built for.
// Dispatching on the tag keeps all three request shapes in one place
// instead of spreading them over subclass overrides.
type PaymentKind string

const (
	// KindStandard is the regular checkout started from the order page.
	KindStandard PaymentKind = "standard"
	// KindExpress is the shortcut checkout started from the basket; the
	// shipping address comes back from the wallet, so none is sent.
	KindExpress PaymentKind = "express"
)

// buildPaymentRequest translates a host order into the v1 create-payment
// body. Amount details are only attached when there is a breakdown to
// show: a plain 49.99 gross order stays a bare {total, currency} amount.
func buildPaymentRequest(kind PaymentKind, order *domain.Order, cfg config.PayPalConfig) *paypal.PaymentRequest {
	txn := paypal.Transaction{
		Amount:        buildAmount(order),
		Description:   order.Description,
		InvoiceNumber: order.Hash,
	}

	if cfg.SubmitCart {
		txn.ItemList = buildItemList(kind, order)
	}

	return &paypal.PaymentRequest{
		Intent:       "order",
		Payer:        &paypal.Payer{PaymentMethod: "paypal"},
		Transactions: []paypal.Transaction{txn},
		RedirectURLs: &paypal.RedirectURLs{
			ReturnURL: cfg.ReturnURL,
			CancelURL: cfg.CancelURL,
		},
	}
}

func buildAmount(order *domain.Order) *paypal.Amount {
	amount := &paypal.Amount{
		Total:    order.TotalMoney().String(),
		Currency: order.Currency,
	}

	if !order.HasBreakdown() {
		return amount
	}

	details := &paypal.AmountDetails{}
	if order.NetCustomer {
		details.Subtotal = order.ItemTotal.StringFixed(2)
		details.Tax = order.TaxTotal.StringFixed(2)
	} else {
		// Gross order with shipping: subtotal is everything but shipping.
		details.Subtotal = order.Total.Sub(order.ShippingCost).StringFixed(2)
	}
	if order.ShippingCost.IsPositive() {
		details.Shipping = order.ShippingCost.StringFixed(2)
	}
	amount.Details = details

	return amount
}

func buildItemList(kind PaymentKind, order *domain.Order) *paypal.ItemList {
	list := &paypal.ItemList{}

	for _, it := range order.Items {
		list.Items = append(list.Items, buildItem(it, order.Currency))
	}
	for _, pf := range order.PriceFactors {
		list.Items = append(list.Items, buildItem(pf, order.Currency))
	}

	// Express checkout takes the address from the wallet; only the
	// standard flow pushes the one the shopper entered at the host.
	if kind == KindStandard && order.ShippingAddress != nil {
		addr := order.ShippingAddress
		list.ShippingAddress = &paypal.ShippingAddress{
			RecipientName: addr.RecipientName,
			Line1:         addr.Line1,
			Line2:         addr.Line2,
			City:          addr.City,
			State:         addr.State,
			PostalCode:    addr.PostalCode,
			CountryCode:   addr.CountryCode,
			Phone:         addr.Phone,
		}
	}

	if len(list.Items) == 0 && list.ShippingAddress == nil {
		return nil
	}
	return list
}

func buildItem(it domain.OrderItem, currency string) paypal.Item {
	return paypal.Item{
		Name:        it.Name,
		Description: it.Description,
		Quantity:    strconv.Itoa(it.Quantity),
		Price:       it.UnitPrice.StringFixed(2),
		Currency:    currency,
		SKU:         it.SKU,
	}
}
