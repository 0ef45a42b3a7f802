package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tiendix/tiendix/internal/domain"
)

// PlanRepository reads the seeded plan catalogue.
type PlanRepository struct {
	db *sql.DB
}

// Compile-time check: PlanRepository implements domain.PlanRepository.
var _ domain.PlanRepository = (*PlanRepository)(nil)

// NewPlanRepository wraps a prepared database connection.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetByID(ctx context.Context, id string) (domain.Plan, error) {
	var p domain.Plan
	var interval string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, price_cents, billing_interval, trial_days, duration_days, max_products, max_variants
		 FROM plans WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.PriceCents, &interval, &p.TrialDays,
		&p.DurationDays, &p.MaxProducts, &p.MaxVariants)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Plan{}, domain.ErrPlanNotFound
		}
		return domain.Plan{}, fmt.Errorf("scanning plan: %w", err)
	}
	p.Interval = domain.BillingInterval(interval)
	return p, nil
}

func (r *PlanRepository) List(ctx context.Context) ([]domain.Plan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price_cents, billing_interval, trial_days, duration_days, max_products, max_variants
		 FROM plans ORDER BY price_cents ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		var p domain.Plan
		var interval string
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &interval, &p.TrialDays,
			&p.DurationDays, &p.MaxProducts, &p.MaxVariants); err != nil {
			return nil, fmt.Errorf("scanning plan row: %w", err)
		}
		p.Interval = domain.BillingInterval(interval)
		plans = append(plans, p)
	}

	return plans, rows.Err()
}

// SubscriptionRepository implements domain.SubscriptionRepository using SQLite.
type SubscriptionRepository struct {
	db *sql.DB
}

// Compile-time check: SubscriptionRepository implements domain.SubscriptionRepository.
var _ domain.SubscriptionRepository = (*SubscriptionRepository)(nil)

// NewSubscriptionRepository wraps a prepared database connection.
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, s domain.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, tenant_id, plan_id, status, period_start, period_end, ends_at,
		                            trial_ends_at, cancel_at, cancel_at_period_end, cancel_reason,
		                            provider_ref, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TenantID, s.PlanID, string(s.Status),
		formatTime(s.PeriodStart), nullableTime(s.PeriodEnd), nullableTime(s.EndsAt),
		nullableTime(s.TrialEndsAt), nullableTime(s.CancelAt), boolToInt(s.CancelAtPeriodEnd),
		s.CancelReason, s.ProviderRef, formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting subscription: %w", err)
	}
	return nil
}

// CurrentVigente returns the subscription in force for the tenant at the
// given instant: status grants access and the end date, if any, is in the
// future. Timestamps are stored in a lexicographically ordered format, so
// the comparison happens in SQL.
func (r *SubscriptionRepository) CurrentVigente(ctx context.Context, tenantID string, now time.Time) (domain.Subscription, error) {
	return r.scanSubscription(r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, plan_id, status, period_start, period_end, ends_at,
		        trial_ends_at, cancel_at, cancel_at_period_end, cancel_reason,
		        provider_ref, created_at, updated_at
		 FROM subscriptions
		 WHERE tenant_id = ?
		   AND status IN ('trial', 'active', 'grace')
		   AND (ends_at IS NULL OR ends_at > ?)
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		tenantID, formatTime(now),
	))
}

func (r *SubscriptionRepository) Update(ctx context.Context, s domain.Subscription) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET plan_id = ?, status = ?, period_start = ?, period_end = ?, ends_at = ?,
		     trial_ends_at = ?, cancel_at = ?, cancel_at_period_end = ?, cancel_reason = ?,
		     provider_ref = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ?`,
		s.PlanID, string(s.Status), formatTime(s.PeriodStart), nullableTime(s.PeriodEnd),
		nullableTime(s.EndsAt), nullableTime(s.TrialEndsAt), nullableTime(s.CancelAt),
		boolToInt(s.CancelAtPeriodEnd), s.CancelReason, s.ProviderRef,
		formatTime(s.UpdatedAt), s.ID, s.TenantID,
	)
	if err != nil {
		return fmt.Errorf("updating subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSubscriptionNotFound
	}

	return nil
}

func (r *SubscriptionRepository) scanSubscription(row *sql.Row) (domain.Subscription, error) {
	var s domain.Subscription
	var status, periodStart, createdAt, updatedAt string
	var periodEnd, endsAt, trialEndsAt, cancelAt sql.NullString
	var cancelAtPeriodEnd int

	err := row.Scan(&s.ID, &s.TenantID, &s.PlanID, &status, &periodStart,
		&periodEnd, &endsAt, &trialEndsAt, &cancelAt, &cancelAtPeriodEnd,
		&s.CancelReason, &s.ProviderRef, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Subscription{}, domain.ErrSubscriptionNotFound
		}
		return domain.Subscription{}, fmt.Errorf("scanning subscription: %w", err)
	}

	s.Status = domain.SubscriptionStatus(status)
	s.PeriodStart = parseTime(periodStart)
	s.PeriodEnd = timeFromNull(periodEnd)
	s.EndsAt = timeFromNull(endsAt)
	s.TrialEndsAt = timeFromNull(trialEndsAt)
	s.CancelAt = timeFromNull(cancelAt)
	s.CancelAtPeriodEnd = cancelAtPeriodEnd != 0
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)

	return s, nil
}
