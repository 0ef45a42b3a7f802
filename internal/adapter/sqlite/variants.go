package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tiendix/tiendix/internal/domain"
)

// VariantRepository implements domain.VariantRepository using SQLite.
type VariantRepository struct {
	db *sql.DB
}

// Compile-time check: VariantRepository implements domain.VariantRepository.
var _ domain.VariantRepository = (*VariantRepository)(nil)

// NewVariantRepository wraps a prepared database connection.
func NewVariantRepository(db *sql.DB) *VariantRepository {
	return &VariantRepository{db: db}
}

func (r *VariantRepository) Create(ctx context.Context, v domain.Variant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO variants (id, tenant_id, product_id, sku, price_cents, stock)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.TenantID, v.ProductID, v.SKU, v.PriceCents, v.Stock,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Field: "sku", Value: v.SKU}
		}
		return fmt.Errorf("inserting variant: %w", err)
	}
	return nil
}

func (r *VariantRepository) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM variants WHERE tenant_id = ?`, tenantID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting variants: %w", err)
	}
	return count, nil
}

func (r *VariantRepository) GetBySKU(ctx context.Context, tenantID, sku string) (domain.Variant, error) {
	var v domain.Variant
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, product_id, sku, price_cents, stock
		 FROM variants WHERE tenant_id = ? AND sku = ?`, tenantID, sku,
	).Scan(&v.ID, &v.TenantID, &v.ProductID, &v.SKU, &v.PriceCents, &v.Stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Variant{}, domain.ErrVariantNotFound
		}
		return domain.Variant{}, fmt.Errorf("scanning variant: %w", err)
	}
	return v, nil
}
