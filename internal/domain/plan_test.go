package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
)

func planOrder(ids ...string) *domain.Order {
	order := &domain.Order{
		Language: "de",
		Currency: "EUR",
		Total:    decimal.RequireFromString("9.99"),
	}
	for _, id := range ids {
		order.Items = append(order.Items, domain.OrderItem{ProductID: id})
	}
	return order
}

func TestPlanSignature_HashIgnoresItemOrder(t *testing.T) {
	a := domain.NewPlanSignature(planOrder("p1", "p2"), false)
	b := domain.NewPlanSignature(planOrder("p2", "p1"), false)

	assert.Equal(t, a.IdentificationHash(), b.IdentificationHash())
}

func TestPlanSignature_HashSeparatesEnvironments(t *testing.T) {
	live := domain.NewPlanSignature(planOrder("p1"), false)
	sandbox := domain.NewPlanSignature(planOrder("p1"), true)

	assert.NotEqual(t, live.IdentificationHash(), sandbox.IdentificationHash())
}

func TestPlanSignature_HashChangesWithTotalAndLanguage(t *testing.T) {
	base := domain.NewPlanSignature(planOrder("p1"), false)

	dearer := planOrder("p1")
	dearer.Total = decimal.RequireFromString("19.99")
	assert.NotEqual(t, base.IdentificationHash(), domain.NewPlanSignature(dearer, false).IdentificationHash())

	english := planOrder("p1")
	english.Language = "en"
	assert.NotEqual(t, base.IdentificationHash(), domain.NewPlanSignature(english, false).IdentificationHash())
}
