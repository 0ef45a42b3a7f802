package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tiendix/tiendix/internal/domain"
)

// TenantResolver produces the active tenant for an inbound request, either
// from a storefront URL slug or from the authenticated caller's owned store.
type TenantResolver struct {
	tenants domain.TenantRepository
}

// NewTenantResolver creates a resolver backed by the given repository.
func NewTenantResolver(tenants domain.TenantRepository) *TenantResolver {
	return &TenantResolver{tenants: tenants}
}

// Resolve applies the resolution rules in order:
//
//  1. A non-empty path slug is authoritative regardless of the caller's
//     identity. An unknown or deactivated store is ErrTenantNotFound; callers
//     must not fall through to owner resolution.
//  2. Otherwise, on an owner-scoped path with an authenticated caller, the
//     first active store owned by that account is resolved.
//  3. Otherwise no tenant is resolved and ok is false.
func (r *TenantResolver) Resolve(ctx context.Context, slug string, identity *domain.Identity, ownerScoped bool) (domain.Tenant, bool, error) {
	if slug != "" {
		tenant, err := r.tenants.GetBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, domain.ErrTenantNotFound) {
				return domain.Tenant{}, false, domain.ErrTenantNotFound
			}
			return domain.Tenant{}, false, fmt.Errorf("resolving tenant by slug: %w", err)
		}
		// A closed store is indistinguishable from a missing one on the
		// public storefront.
		if !tenant.Active {
			return domain.Tenant{}, false, domain.ErrTenantNotFound
		}
		return tenant, true, nil
	}

	if ownerScoped && identity != nil {
		tenant, err := r.tenants.FirstByOwner(ctx, identity.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrTenantNotFound) {
				return domain.Tenant{}, false, nil
			}
			return domain.Tenant{}, false, fmt.Errorf("resolving tenant by owner: %w", err)
		}
		if !tenant.Active {
			return domain.Tenant{}, false, nil
		}
		return tenant, true, nil
	}

	return domain.Tenant{}, false, nil
}
