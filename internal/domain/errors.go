package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrVariantNotFound      = errors.New("variant not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrNoTenant is returned by scope accessors when no tenant has been
	// resolved for the current request. Downstream logic must fail with it
	// explicitly, never proceed with a default or stale tenant.
	ErrNoTenant = errors.New("no tenant resolved for request")
)

// SlugConflictError is returned when a tenant slug is already in use.
type SlugConflictError struct {
	Slug string
}

func (e *SlugConflictError) Error() string {
	return fmt.Sprintf("slug %q is already in use", e.Slug)
}

// ValidationError is returned for malformed input, echoing the offending value.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// AccessDeniedError is returned when an actor is not authorized for a
// tenant-scoped resource. It carries no hint of whether the resource exists.
type AccessDeniedError struct {
	AccountID string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("account %q is not authorized for this resource", e.AccountID)
}

// InsufficientStockError is returned when a reservation would drive stock
// negative. The failed operation leaves no partial deduction behind.
type InsufficientStockError struct {
	SKU       string
	Available int
	Required  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: have %d, need %d", e.SKU, e.Available, e.Required)
}

// IllegalStateError is returned when an operation is not valid for the
// current lifecycle state, e.g. cancelling without a vigente subscription.
type IllegalStateError struct {
	Op    string
	State string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("%s is not valid in state %q", e.Op, e.State)
}
