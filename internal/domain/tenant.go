package domain

import "time"

// Tenant is an independent storefront sharing the platform. It is the unit
// of data isolation: every variant, order and subscription belongs to exactly
// one tenant.
type Tenant struct {
	ID        string
	Name      string
	Slug      string
	OwnerID   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTenant creates an active tenant owned by the given account.
// Tenants are deactivated, never hard-deleted.
func NewTenant(id, name, slug, ownerID string) Tenant {
	now := time.Now().UTC()
	return Tenant{
		ID:        id,
		Name:      name,
		Slug:      slug,
		OwnerID:   ownerID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
