package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tiendix/tiendix/internal/adapter/sqlite"
	"github.com/tiendix/tiendix/internal/domain"
)

func TestTenantCreate_And_GetBySlug(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewTenantRepository(db)
	ctx := context.Background()

	tenant := domain.NewTenant("t-1", "Acme Corp", "acme-corp", "acct-1")
	if err := repo.Create(ctx, tenant); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetBySlug(ctx, "acme-corp")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got.ID != "t-1" {
		t.Errorf("ID = %q, want %q", got.ID, "t-1")
	}
	if got.OwnerID != "acct-1" {
		t.Errorf("OwnerID = %q, want %q", got.OwnerID, "acct-1")
	}
	if !got.Active {
		t.Error("new tenant should be active")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
}

func TestTenantGetBySlug_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := sqlite.NewTenantRepository(db).GetBySlug(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestTenantCreate_DuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewTenantRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, domain.NewTenant("t-1", "Acme", "acme", "acct-1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := repo.Create(ctx, domain.NewTenant("t-2", "Other", "acme", "acct-2"))
	var conflict *domain.SlugConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SlugConflictError, got %v", err)
	}
}

func TestTenantFirstByOwner(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewTenantRepository(db)
	ctx := context.Background()

	older := domain.NewTenant("t-1", "First", "first", "acct-1")
	older.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := domain.NewTenant("t-2", "Second", "second", "acct-1")
	newer.CreatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Insertion order must not matter.
	if err := repo.Create(ctx, newer); err != nil {
		t.Fatalf("create newer: %v", err)
	}
	if err := repo.Create(ctx, older); err != nil {
		t.Fatalf("create older: %v", err)
	}

	got, err := repo.FirstByOwner(ctx, "acct-1")
	if err != nil {
		t.Fatalf("FirstByOwner failed: %v", err)
	}
	if got.ID != "t-1" {
		t.Errorf("ID = %q, want t-1 (oldest store)", got.ID)
	}

	if _, err := repo.FirstByOwner(ctx, "acct-9"); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound for unknown owner, got %v", err)
	}
}

func TestTenantUpdate_Deactivate(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewTenantRepository(db)
	ctx := context.Background()

	tenant := seedTenant(t, db, "t-1", "acme", "acct-1")
	tenant.Active = false
	if err := repo.Update(ctx, tenant); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "t-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Active {
		t.Error("tenant should be inactive after update")
	}
}

func TestTenantUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := sqlite.NewTenantRepository(db).Update(context.Background(), domain.NewTenant("ghost", "Ghost", "ghost", "acct-1"))
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}
}
