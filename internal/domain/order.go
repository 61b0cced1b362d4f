package domain

import (
	"github.com/shopspring/decimal"
)

// Order is the snapshot of a host-platform order the orchestrator works
// with. The host owns the order; this core only reads it and writes the
// attached payment state back.
type Order struct {
	Ref        string // host order identifier, correlation key for all flows
	Hash       string // stable order hash, sent to the gateway as reference id
	CustomerID string
	Language   string
	Currency   string

	Total        decimal.Decimal
	ItemTotal    decimal.Decimal // net subtotal, only meaningful for net customers
	TaxTotal     decimal.Decimal
	ShippingCost decimal.Decimal
	NetCustomer  bool

	Description     string
	Items           []OrderItem
	PriceFactors    []OrderItem // surcharges/discounts carried as extra line items
	ShippingAddress *Address

	// Attributes is the loosely typed metadata bag attached by the host.
	// Recurring plan settings live here for subscription products.
	Attributes map[string]any
}

type OrderItem struct {
	ProductID   string
	Name        string
	SKU         string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type Address struct {
	RecipientName string
	Line1         string
	Line2         string
	City          string
	State         string
	PostalCode    string
	CountryCode   string
	Phone         string
}

// TotalMoney returns the order total as Money.
func (o *Order) TotalMoney() Money {
	return Money{Amount: o.Total, Currency: o.Currency}
}

// HasBreakdown reports whether the create request should carry the
// subtotal/tax/shipping details block. Present for net customers and
// whenever shipping is charged.
func (o *Order) HasBreakdown() bool {
	return o.NetCustomer || o.ShippingCost.IsPositive()
}

// ProductIDs returns the ids of all regular line items, order preserved.
func (o *Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// RecurringPlan is the parsed recurring-billing configuration of a
// subscription order.
type RecurringPlan struct {
	Name      string
	Frequency string // DAY, WEEK, MONTH or YEAR
	Interval  int    // every N frequency units
	AutoRenew bool
	// TermMonths bounds fixed-length plans; ignored when AutoRenew is set.
	TermMonths int
}

const (
	FrequencyDay   = "DAY"
	FrequencyWeek  = "WEEK"
	FrequencyMonth = "MONTH"
	FrequencyYear  = "YEAR"
)
