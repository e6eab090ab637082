package domain

import (
	"fmt"
	"strings"
	"time"
)

// Plan is a subscription billing period.
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

var planPrices = map[Plan]int64{
	PlanMonthly: 100,
	PlanYearly:  600,
}

// ParsePlan validates a plan name.
func ParsePlan(s string) (Plan, error) {
	p := Plan(s)
	if _, ok := planPrices[p]; !ok {
		return "", fmt.Errorf("unknown plan %q", s)
	}
	return p, nil
}

// Price returns the plan price in major currency units.
func (p Plan) Price() int64 {
	return planPrices[p]
}

// PriceMinor returns the plan price in minor currency units.
func (p Plan) PriceMinor() int64 {
	return planPrices[p] * 100
}

// Label is the product name shown on the checkout page.
func (p Plan) Label() string {
	return strings.ToUpper(string(p)) + " Subscription"
}

// ExpiresAt returns the end of a period of this plan starting at from.
func (p Plan) ExpiresAt(from time.Time) time.Time {
	if p == PlanMonthly {
		return from.AddDate(0, 1, 0)
	}
	return from.AddDate(1, 0, 0)
}

// SubscriptionStatus is the lifecycle state of a subscription. Expired and
// cancelled are terminal.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a paid entitlement to premium content.
type Subscription struct {
	ID                string
	UserID            string
	Plan              Plan
	Price             float64
	Status            SubscriptionStatus
	StartedAt         time.Time
	ExpiresAt         time.Time
	CheckoutSessionID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SubscriptionState is the outcome of evaluating a subscription at a point in time.
type SubscriptionState struct {
	Active bool
	// NeedsExpiry is set when the record is still marked active but its
	// expiry has passed; the caller must persist the demotion.
	NeedsExpiry bool
}

// Evaluate decides whether s grants access at now. It has no side effects.
func (s *Subscription) Evaluate(now time.Time) SubscriptionState {
	if s == nil || s.Status != SubscriptionActive {
		return SubscriptionState{}
	}
	if !s.ExpiresAt.After(now) {
		return SubscriptionState{NeedsExpiry: true}
	}
	return SubscriptionState{Active: true}
}
