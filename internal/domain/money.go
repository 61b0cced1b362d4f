package domain

import (
	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in a single currency. PayPal's v1 API
// takes amounts as strings with two fraction digits, so formatting lives
// here instead of being repeated at every call site.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, NewInvalidAmountError(amount.String())
	}
	if currency == "" {
		return Money{}, NewMissingRequiredFieldError("currency")
	}
	return Money{Amount: amount, Currency: currency}, nil
}

func MoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, NewInvalidAmountError(amount)
	}
	return NewMoney(d, currency)
}

// String formats the amount the way the gateway expects it: "49.99".
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}
