package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/tiendix/tiendix/internal/adapter/sqlite"
	"github.com/tiendix/tiendix/internal/domain"
)

// newTestDB opens an in-memory SQLite database with migrations applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTenant(t *testing.T, db *sql.DB, id, slug, ownerID string) domain.Tenant {
	t.Helper()
	tenant := domain.NewTenant(id, "Store "+id, slug, ownerID)
	if err := sqlite.NewTenantRepository(db).Create(context.Background(), tenant); err != nil {
		t.Fatalf("seeding tenant %s: %v", id, err)
	}
	return tenant
}

func seedVariant(t *testing.T, db *sql.DB, v domain.Variant) domain.Variant {
	t.Helper()
	if err := sqlite.NewVariantRepository(db).Create(context.Background(), v); err != nil {
		t.Fatalf("seeding variant %s: %v", v.SKU, err)
	}
	return v
}

func variantStock(t *testing.T, db *sql.DB, variantID string) int {
	t.Helper()
	var stock int
	err := db.QueryRow(`SELECT stock FROM variants WHERE id = ?`, variantID).Scan(&stock)
	if err != nil {
		t.Fatalf("reading stock of %s: %v", variantID, err)
	}
	return stock
}
