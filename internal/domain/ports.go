package domain

import (
	"context"
	"time"
)

// TenantRepository defines the persistence contract for tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant Tenant) error
	GetByID(ctx context.Context, id string) (Tenant, error)
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	// FirstByOwner returns the first tenant owned by the account, by
	// creation order. ErrTenantNotFound when the account owns none.
	FirstByOwner(ctx context.Context, ownerID string) (Tenant, error)
	Update(ctx context.Context, tenant Tenant) error
}

// VariantRepository defines read/create access to sellable variants.
// Stock is excluded: it moves only through the InventoryLedger.
type VariantRepository interface {
	Create(ctx context.Context, v Variant) error
	GetBySKU(ctx context.Context, tenantID, sku string) (Variant, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
}

// InventoryLedger owns stock counters. Reserve and Release are atomic with
// respect to concurrent calls on the same variant: the sum of successful
// reservations never exceeds available stock.
type InventoryLedger interface {
	// Reserve atomically checks stock >= qty and decrements, or fails with
	// *InsufficientStockError without mutating anything.
	Reserve(ctx context.Context, variantID string, qty int) error
	// Release unconditionally returns qty units to stock. Idempotency is
	// the caller's responsibility.
	Release(ctx context.Context, variantID string, qty int) error
}

// OrderRepository persists orders together with their lines.
type OrderRepository interface {
	Create(ctx context.Context, order Order) error
	// GetByID is tenant-scoped: an order belonging to another tenant is
	// ErrOrderNotFound, never leaked.
	GetByID(ctx context.Context, tenantID, id string) (Order, error)
	// ApplyTransition commits the new status and the ledger effect for
	// every line as one transactional unit. A failed reservation rolls
	// back the whole batch and the status change.
	ApplyTransition(ctx context.Context, order Order, to OrderStatus, effect LedgerEffect) error
}

// PlanRepository provides read access to the immutable plan catalogue.
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (Plan, error)
	List(ctx context.Context) ([]Plan, error)
}

// SubscriptionRepository persists tenant subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub Subscription) error
	// CurrentVigente returns the tenant's subscription that is in force at
	// the given instant, or ErrSubscriptionNotFound.
	CurrentVigente(ctx context.Context, tenantID string, now time.Time) (Subscription, error)
	Update(ctx context.Context, sub Subscription) error
}

// StatusValidator checks an order status transition and reports its ledger
// effect. A same-state request is accepted with EffectNone.
type StatusValidator interface {
	Apply(ctx context.Context, current, target OrderStatus) (LedgerEffect, error)
}

// ReceiptPublisher hands a fulfilled order to the decoupled document
// pipeline. Failures are logged by callers and never fail the transition.
type ReceiptPublisher interface {
	Publish(ctx context.Context, order Order) error
}

// IdentityVerifier turns a bearer token into an authenticated identity.
// Token issuance is a collaborator concern.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
