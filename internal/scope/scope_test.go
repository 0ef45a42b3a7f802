package scope_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tiendix/tiendix/internal/domain"
	"github.com/tiendix/tiendix/internal/scope"
)

func TestTenant_FailsFastWhenUnset(t *testing.T) {
	_, err := scope.Tenant(context.Background())
	if !errors.Is(err, domain.ErrNoTenant) {
		t.Fatalf("expected ErrNoTenant, got %v", err)
	}
}

func TestTenant_RoundTrip(t *testing.T) {
	tenant := domain.NewTenant("t-1", "Acme", "acme", "acct-1")
	ctx := scope.WithTenant(context.Background(), tenant)

	got, err := scope.Tenant(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "t-1" {
		t.Errorf("ID = %q, want %q", got.ID, "t-1")
	}
}

func TestIdentity_RoundTrip(t *testing.T) {
	if _, ok := scope.Identity(context.Background()); ok {
		t.Fatal("empty context should carry no identity")
	}

	ctx := scope.WithIdentity(context.Background(), domain.Identity{AccountID: "acct-1", Role: domain.RoleOwner})
	id, ok := scope.Identity(ctx)
	if !ok {
		t.Fatal("identity not found")
	}
	if id.AccountID != "acct-1" {
		t.Errorf("AccountID = %q, want %q", id.AccountID, "acct-1")
	}
}

// TestTenant_ConcurrentScopesAreIndependent simulates many requests running
// at once: each goroutine's scope must only ever observe its own tenant.
func TestTenant_ConcurrentScopesAreIndependent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tenant := domain.Tenant{ID: string(rune('a' + n%26))}
			ctx := scope.WithTenant(context.Background(), tenant)
			for j := 0; j < 100; j++ {
				got, err := scope.Tenant(ctx)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if got.ID != tenant.ID {
					t.Errorf("scope leaked: got %q, want %q", got.ID, tenant.ID)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
