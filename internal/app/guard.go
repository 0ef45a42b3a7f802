package app

import "github.com/tiendix/tiendix/internal/domain"

// PermissionGuard decides whether an actor may act on a tenant-scoped
// resource. It must run before any tenant-scoped read or mutation that is
// not inherently public.
type PermissionGuard struct{}

// NewPermissionGuard creates the guard.
func NewPermissionGuard() *PermissionGuard {
	return &PermissionGuard{}
}

// Authorize permits the action when the identity is a platform admin, or
// when the request's resolved tenant matches the resource's tenant and the
// identity actually owns that tenant. Everything else is access denied,
// without revealing whether the resource exists.
func (g *PermissionGuard) Authorize(identity domain.Identity, scopeTenant domain.Tenant, resourceTenantID string) error {
	if identity.IsAdmin() {
		return nil
	}
	if scopeTenant.ID != "" && scopeTenant.ID == resourceTenantID && scopeTenant.OwnerID == identity.AccountID {
		return nil
	}
	return &domain.AccessDeniedError{AccountID: identity.AccountID}
}
