package app

import (
	"context"
	"fmt"

	"github.com/tiendix/tiendix/internal/domain"
)

// StoreService handles the owner-facing store creation flow and lookups.
type StoreService struct {
	tenants domain.TenantRepository
}

// NewStoreService creates the service.
func NewStoreService(tenants domain.TenantRepository) *StoreService {
	return &StoreService{tenants: tenants}
}

// Create persists a new store owned by the caller.
func (s *StoreService) Create(ctx context.Context, name, slug, ownerID string) (domain.Tenant, error) {
	// Check slug uniqueness before creating.
	if _, err := s.tenants.GetBySlug(ctx, slug); err == nil {
		return domain.Tenant{}, &domain.SlugConflictError{Slug: slug}
	}

	id, err := generateID()
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("generating tenant id: %w", err)
	}

	tenant := domain.NewTenant(id, name, slug, ownerID)

	if err := s.tenants.Create(ctx, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("creating tenant: %w", err)
	}

	return tenant, nil
}

// GetBySlug returns a store by its URL slug.
func (s *StoreService) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	return s.tenants.GetBySlug(ctx, slug)
}

// Deactivate flips the store's active flag off and returns the updated
// tenant. The row is re-read first so the write works from the current state
// rather than the caller's possibly stale copy. Stores are never hard-deleted.
func (s *StoreService) Deactivate(ctx context.Context, tenantID string) (domain.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return domain.Tenant{}, err
	}
	tenant.Active = false
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("deactivating tenant: %w", err)
	}
	return tenant, nil
}
