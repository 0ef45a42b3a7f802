package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tiendix/tiendix/internal/domain"
	"github.com/tiendix/tiendix/internal/scope"
)

// CatalogService handles the owner-facing variant management that the
// subscription entitlements gate.
type CatalogService struct {
	variants domain.VariantRepository
	subs     domain.SubscriptionRepository
	plans    domain.PlanRepository
	guard    *PermissionGuard
	now      func() time.Time
}

// NewCatalogService creates the service using the real clock.
func NewCatalogService(variants domain.VariantRepository, subs domain.SubscriptionRepository, plans domain.PlanRepository, guard *PermissionGuard) *CatalogService {
	return &CatalogService{
		variants: variants,
		subs:     subs,
		plans:    plans,
		guard:    guard,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddVariant creates a sellable variant for the request's tenant. The caller
// must be authorized for the tenant, the tenant must hold a vigente
// subscription, and the plan's variant limit must not be exhausted.
func (s *CatalogService) AddVariant(ctx context.Context, productID, sku string, priceCents int64, initialStock int) (domain.Variant, error) {
	tenant, err := scope.Tenant(ctx)
	if err != nil {
		return domain.Variant{}, err
	}

	identity, _ := scope.Identity(ctx)
	if err := s.guard.Authorize(identity, tenant, tenant.ID); err != nil {
		return domain.Variant{}, err
	}

	if initialStock < 0 {
		return domain.Variant{}, &domain.ValidationError{Field: "stock", Value: fmt.Sprintf("%d", initialStock)}
	}

	now := s.now()
	sub, err := s.subs.CurrentVigente(ctx, tenant.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return domain.Variant{}, &domain.IllegalStateError{Op: "add variant", State: "no vigente subscription"}
		}
		return domain.Variant{}, fmt.Errorf("checking subscription: %w", err)
	}

	plan, err := s.plans.GetByID(ctx, sub.PlanID)
	if err != nil {
		return domain.Variant{}, err
	}

	if plan.MaxVariants > 0 {
		count, err := s.variants.CountByTenant(ctx, tenant.ID)
		if err != nil {
			return domain.Variant{}, fmt.Errorf("counting variants: %w", err)
		}
		if count >= plan.MaxVariants {
			return domain.Variant{}, &domain.IllegalStateError{Op: "add variant", State: "variant limit reached"}
		}
	}

	id, err := generateID()
	if err != nil {
		return domain.Variant{}, fmt.Errorf("generating variant id: %w", err)
	}

	variant := domain.Variant{
		ID:         id,
		TenantID:   tenant.ID,
		ProductID:  productID,
		SKU:        sku,
		PriceCents: priceCents,
		Stock:      initialStock,
	}

	if err := s.variants.Create(ctx, variant); err != nil {
		return domain.Variant{}, err
	}

	return variant, nil
}
