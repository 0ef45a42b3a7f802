package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tiendix/tiendix/internal/domain"
)

// SubscriptionService owns a tenant's plan-subscription record: creation,
// plan change, cancellation and renewal-date computation. Transitions are
// single-writer per tenant.
type SubscriptionService struct {
	subs  domain.SubscriptionRepository
	plans domain.PlanRepository
	now   func() time.Time
}

// NewSubscriptionService creates the service using the real clock.
func NewSubscriptionService(subs domain.SubscriptionRepository, plans domain.PlanRepository) *SubscriptionService {
	return &SubscriptionService{
		subs:  subs,
		plans: plans,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Tests use this to move time.
func (s *SubscriptionService) WithClock(now func() time.Time) *SubscriptionService {
	s.now = now
	return s
}

// CreateInitial starts the tenant's first subscription on the given plan.
// The tenant must not already hold a vigente subscription. The initial
// status is trial when the plan grants trial days, active otherwise.
func (s *SubscriptionService) CreateInitial(ctx context.Context, tenant domain.Tenant, planID string) (domain.Subscription, error) {
	now := s.now()

	if existing, err := s.subs.CurrentVigente(ctx, tenant.ID, now); err == nil {
		return domain.Subscription{}, &domain.IllegalStateError{
			Op:    "create subscription",
			State: string(existing.Status),
		}
	} else if !errors.Is(err, domain.ErrSubscriptionNotFound) {
		return domain.Subscription{}, fmt.Errorf("checking vigente subscription: %w", err)
	}

	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return domain.Subscription{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("generating subscription id: %w", err)
	}

	sub := domain.Subscription{
		ID:          id,
		TenantID:    tenant.ID,
		PlanID:      plan.ID,
		PeriodStart: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if plan.TrialDays > 0 {
		sub.Status = domain.SubTrial
		trialEnd := now.AddDate(0, 0, plan.TrialDays)
		sub.TrialEndsAt = &trialEnd
		sub.EndsAt = &trialEnd
		sub.PeriodEnd = &trialEnd
	} else {
		sub.Status = domain.SubActive
		sub.EndsAt, sub.PeriodEnd = computeBoundaries(plan, now)
	}

	if err := s.subs.Create(ctx, sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("creating subscription: %w", err)
	}

	return sub, nil
}

// ChangePlan switches the tenant's vigente subscription to a new plan. The
// subscription exits any trial, becomes active, and its period boundaries
// are recomputed from now. The external billing reference is recorded.
func (s *SubscriptionService) ChangePlan(ctx context.Context, tenant domain.Tenant, newPlanID, providerRef string) (domain.Subscription, error) {
	now := s.now()

	sub, err := s.subs.CurrentVigente(ctx, tenant.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return domain.Subscription{}, &domain.IllegalStateError{Op: "change plan", State: "no vigente subscription"}
		}
		return domain.Subscription{}, fmt.Errorf("loading vigente subscription: %w", err)
	}

	plan, err := s.plans.GetByID(ctx, newPlanID)
	if err != nil {
		return domain.Subscription{}, err
	}

	sub.PlanID = plan.ID
	sub.Status = domain.SubActive
	sub.TrialEndsAt = nil
	sub.PeriodStart = now
	sub.EndsAt, sub.PeriodEnd = computeBoundaries(plan, now)
	sub.ProviderRef = providerRef
	sub.UpdatedAt = now

	if err := s.subs.Update(ctx, sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("updating subscription: %w", err)
	}

	return sub, nil
}

// Cancel ends the tenant's vigente subscription. Immediate cancellation
// closes it now; otherwise the cancellation is scheduled for the end of the
// current period and the subscription stays in force until that date
// elapses (elapsing is a batch concern, not handled here).
func (s *SubscriptionService) Cancel(ctx context.Context, tenant domain.Tenant, immediate bool, reason string) (domain.Subscription, error) {
	now := s.now()

	sub, err := s.subs.CurrentVigente(ctx, tenant.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return domain.Subscription{}, &domain.IllegalStateError{Op: "cancel subscription", State: "no vigente subscription"}
		}
		return domain.Subscription{}, fmt.Errorf("loading vigente subscription: %w", err)
	}

	sub.CancelReason = reason
	sub.UpdatedAt = now

	if immediate {
		sub.Status = domain.SubCancelled
		sub.EndsAt = &now
		sub.CancelAt = &now
	} else {
		sub.CancelAtPeriodEnd = true
		sub.CancelAt = sub.PeriodEnd
	}

	if err := s.subs.Update(ctx, sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("updating subscription: %w", err)
	}

	return sub, nil
}

// Current returns the tenant's vigente subscription, or
// domain.ErrSubscriptionNotFound when none is in force.
func (s *SubscriptionService) Current(ctx context.Context, tenant domain.Tenant) (domain.Subscription, error) {
	return s.subs.CurrentVigente(ctx, tenant.ID, s.now())
}

// IsVigente reports whether the tenant holds a subscription currently in force.
func (s *SubscriptionService) IsVigente(ctx context.Context, tenant domain.Tenant) (bool, error) {
	_, err := s.subs.CurrentVigente(ctx, tenant.ID, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsTrialActive reports whether the tenant's subscription is inside its
// trial window.
func (s *SubscriptionService) IsTrialActive(ctx context.Context, tenant domain.Tenant) (bool, error) {
	now := s.now()
	sub, err := s.subs.CurrentVigente(ctx, tenant.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return false, nil
		}
		return false, err
	}
	return sub.IsTrialActive(now), nil
}

// ListPlans returns the plan catalogue.
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	return s.plans.List(ctx)
}

// computeBoundaries returns the overall end date and the current billing
// period end for a non-trial subscription starting at start. A fixed
// duration bounds the overall end; plans without one run for life. The
// period end advances one billing interval, except for indefinite plans
// where it mirrors the overall end date.
func computeBoundaries(plan domain.Plan, start time.Time) (endsAt, periodEnd *time.Time) {
	if plan.DurationDays > 0 {
		end := start.AddDate(0, 0, plan.DurationDays)
		endsAt = &end
	}

	switch plan.Interval {
	case domain.IntervalMonth:
		end := start.AddDate(0, 1, 0)
		periodEnd = &end
	case domain.IntervalYear:
		end := start.AddDate(1, 0, 0)
		periodEnd = &end
	default:
		periodEnd = endsAt
	}

	return endsAt, periodEnd
}
