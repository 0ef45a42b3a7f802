package domain

import "time"

// SubscriptionStatus is the lifecycle state of a tenant's plan subscription.
type SubscriptionStatus string

const (
	SubTrial     SubscriptionStatus = "trial"
	SubActive    SubscriptionStatus = "active"
	SubPastDue   SubscriptionStatus = "past_due"
	SubGrace     SubscriptionStatus = "grace"
	SubCancelled SubscriptionStatus = "cancelled"
	SubExpired   SubscriptionStatus = "expired"
)

// BillingInterval is a plan's billing cadence. IntervalNone marks an
// indefinite (lifetime) plan that is never billed periodically.
type BillingInterval string

const (
	IntervalMonth BillingInterval = "month"
	IntervalYear  BillingInterval = "year"
	IntervalNone  BillingInterval = "none"
)

// Plan is immutable reference data describing a pricing tier and its
// resource limits.
type Plan struct {
	ID           string
	Name         string
	PriceCents   int64
	Interval     BillingInterval
	TrialDays    int
	DurationDays int // 0 = no fixed overall duration
	MaxProducts  int // 0 = unlimited
	MaxVariants  int // 0 = unlimited
}

// Subscription ties a tenant to a plan. At most one subscription per tenant
// may be vigente (currently in force) at a time.
type Subscription struct {
	ID                string
	TenantID          string
	PlanID            string
	Status            SubscriptionStatus
	PeriodStart       time.Time
	PeriodEnd         *time.Time // end of the current billing period
	EndsAt            *time.Time // overall end date; nil = lifetime
	TrialEndsAt       *time.Time
	CancelAt          *time.Time
	CancelAtPeriodEnd bool
	CancelReason      string
	ProviderRef       string // payment-provider reference
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsVigente reports whether the subscription is currently in force: its
// status grants access and its end date has not passed.
func (s Subscription) IsVigente(now time.Time) bool {
	switch s.Status {
	case SubTrial, SubActive, SubGrace:
	default:
		return false
	}
	return s.EndsAt == nil || s.EndsAt.After(now)
}

// IsTrialActive reports whether the subscription is in its trial window.
func (s Subscription) IsTrialActive(now time.Time) bool {
	return s.Status == SubTrial && s.TrialEndsAt != nil && s.TrialEndsAt.After(now)
}

// DaysRemaining returns the whole days until the current period ends.
// A nil period end (lifetime plan) reports -1.
func (s Subscription) DaysRemaining(now time.Time) int {
	if s.PeriodEnd == nil {
		return -1
	}
	return int(s.PeriodEnd.Sub(now).Hours() / 24)
}

// NearExpiry reports whether the current period ends within the next week.
func (s Subscription) NearExpiry(now time.Time) bool {
	if s.PeriodEnd == nil || !s.PeriodEnd.After(now) {
		return false
	}
	return !s.PeriodEnd.After(now.AddDate(0, 0, 7))
}
