package domain

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"
	"time"
)

// BillingPlan maps an order signature to a billing plan already created at
// the gateway. The hash key makes plan creation idempotent by construction:
// the same product set, total, language and environment always land on the
// same row.
type BillingPlan struct {
	IdentificationHash string
	ProviderPlanID     string
	Name               string
	State              string
	CreatedAt          time.Time
}

// PlanSignature is everything that distinguishes one remote plan from
// another. Two orders with equal signatures must share a plan.
type PlanSignature struct {
	ProductIDs []string
	Total      string
	Language   string
	Sandbox    bool
}

func NewPlanSignature(order *Order, sandbox bool) PlanSignature {
	return PlanSignature{
		ProductIDs: order.ProductIDs(),
		Total:      order.TotalMoney().String(),
		Language:   order.Language,
		Sandbox:    sandbox,
	}
}

// IdentificationHash derives the cache key. Product ids are sorted first so
// item ordering in the basket cannot produce a second plan.
func (sig PlanSignature) IdentificationHash() string {
	ids := slices.Clone(sig.ProductIDs)
	slices.Sort(ids)

	env := "live"
	if sig.Sandbox {
		env = "sandbox"
	}

	payload := strings.Join(ids, ",") + "|" + sig.Total + "|" + sig.Language + "|" + env
	sum := sha256.Sum256([]byte(payload))
	return fmt.Sprintf("%x", sum)
}

// Billing agreement states as the gateway reports them.
const (
	AgreementStateActive    = "Active"
	AgreementStatePending   = "Pending"
	AgreementStateCancelled = "Cancelled"
	AgreementStateExpired   = "Expired"
)
