// Package scope carries the per-request tenant and identity as explicit
// context values. Each request context gets its own values, so concurrent
// requests are independent by construction and nothing can survive past the
// request: the values die with the context on every exit path, including
// panics recovered by the HTTP middleware.
package scope

import (
	"context"

	"github.com/tiendix/tiendix/internal/domain"
)

type ctxKey int

const (
	tenantKey ctxKey = iota
	identityKey
)

// WithTenant returns a context carrying the resolved tenant.
func WithTenant(ctx context.Context, t domain.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// Tenant returns the resolved tenant for the request. It fails fast with
// domain.ErrNoTenant when no tenant has been resolved; callers must never
// substitute a default.
func Tenant(ctx context.Context) (domain.Tenant, error) {
	t, ok := ctx.Value(tenantKey).(domain.Tenant)
	if !ok {
		return domain.Tenant{}, domain.ErrNoTenant
	}
	return t, nil
}

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Identity returns the authenticated identity, if any.
func Identity(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}
