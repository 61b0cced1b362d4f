package services

import (
	"strconv"
	"time"

	"github.com/spf13/cast"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/paypal"
)

// Attribute keys the host platform sets on subscription orders.
const (
	attrPlanName   = "recurring_name"
	attrFrequency  = "recurring_frequency"
	attrInterval   = "recurring_interval"
	attrAutoRenew  = "recurring_auto_renew"
	attrTermMonths = "recurring_term_months"
)

// ParseRecurringPlan reads the recurring-billing settings off the order's
// attribute bag. Missing or inconsistent settings fail here, before any
// gateway traffic.
func ParseRecurringPlan(order *domain.Order) (*domain.RecurringPlan, error) {
	attrs := order.Attributes
	if attrs == nil {
		return nil, domain.NewPlanConfigurationError("order has no attributes")
	}

	plan := &domain.RecurringPlan{
		Name:       cast.ToString(attrs[attrPlanName]),
		Frequency:  cast.ToString(attrs[attrFrequency]),
		Interval:   cast.ToInt(attrs[attrInterval]),
		AutoRenew:  cast.ToBool(attrs[attrAutoRenew]),
		TermMonths: cast.ToInt(attrs[attrTermMonths]),
	}

	if plan.Name == "" {
		plan.Name = order.Description
	}
	if plan.Interval <= 0 {
		plan.Interval = 1
	}

	switch plan.Frequency {
	case domain.FrequencyDay, domain.FrequencyWeek, domain.FrequencyMonth, domain.FrequencyYear:
	case "":
		return nil, domain.NewPlanConfigurationError("frequency is missing")
	default:
		return nil, domain.NewPlanConfigurationError("unknown frequency " + plan.Frequency)
	}

	if !plan.AutoRenew && plan.TermMonths <= 0 {
		return nil, domain.NewPlanConfigurationError("fixed-length plan without a term")
	}

	return plan, nil
}

// planCycles computes the cycle count for the gateway plan definition.
// Auto-renewing plans are open ended (0 means infinite). Fixed-length
// plans get the number of billing dates that fall inside the term,
// counted by walking the billing calendar from now.
func planCycles(plan *domain.RecurringPlan, now time.Time) int {
	if plan.AutoRenew {
		return 0
	}

	end := now.AddDate(0, plan.TermMonths, 0)
	cycles := 0
	for t := advance(now, plan); !t.After(end); t = advance(t, plan) {
		cycles++
	}
	return cycles
}

func advance(t time.Time, plan *domain.RecurringPlan) time.Time {
	switch plan.Frequency {
	case domain.FrequencyDay:
		return t.AddDate(0, 0, plan.Interval)
	case domain.FrequencyWeek:
		return t.AddDate(0, 0, 7*plan.Interval)
	case domain.FrequencyYear:
		return t.AddDate(plan.Interval, 0, 0)
	default:
		return t.AddDate(0, plan.Interval, 0)
	}
}

// buildPlanRequest assembles the gateway billing-plan body for an order's
// recurring settings. This endpoint generation takes the {currency,value}
// amount object.
func buildPlanRequest(order *domain.Order, plan *domain.RecurringPlan, cycles int, returnURL, cancelURL string) *paypal.BillingPlanRequest {
	planType := "FIXED"
	if plan.AutoRenew {
		planType = "INFINITE"
	}

	return &paypal.BillingPlanRequest{
		Name:        plan.Name,
		Description: order.Description,
		Type:        planType,
		PaymentDefinitions: []paypal.PaymentDefinition{
			{
				Name:              plan.Name,
				Type:              "REGULAR",
				Frequency:         plan.Frequency,
				FrequencyInterval: strconv.Itoa(plan.Interval),
				Cycles:            strconv.Itoa(cycles),
				Amount: &paypal.Currency{
					Currency: order.Currency,
					Value:    order.TotalMoney().String(),
				},
			},
		},
		MerchantPreferences: &paypal.MerchantPreferences{
			ReturnURL:               returnURL,
			CancelURL:               cancelURL,
			AutoBillAmount:          "YES",
			InitialFailAmountAction: "CANCEL",
			MaxFailAttempts:         "3",
		},
	}
}
