package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tiendix/tiendix/internal/domain"
)

// TenantRepository implements domain.TenantRepository using SQLite.
type TenantRepository struct {
	db *sql.DB
}

// Compile-time check: TenantRepository implements domain.TenantRepository.
var _ domain.TenantRepository = (*TenantRepository)(nil)

// NewTenantRepository wraps a prepared database connection.
func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, t domain.Tenant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (id, name, slug, owner_id, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Slug, t.OwnerID, boolToInt(t.Active),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.SlugConflictError{Slug: t.Slug}
		}
		return fmt.Errorf("inserting tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return r.scanTenant(r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, owner_id, active, created_at, updated_at
		 FROM tenants WHERE id = ?`, id,
	))
}

func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	return r.scanTenant(r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, owner_id, active, created_at, updated_at
		 FROM tenants WHERE slug = ?`, slug,
	))
}

func (r *TenantRepository) FirstByOwner(ctx context.Context, ownerID string) (domain.Tenant, error) {
	return r.scanTenant(r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, owner_id, active, created_at, updated_at
		 FROM tenants WHERE owner_id = ? ORDER BY created_at ASC, id ASC LIMIT 1`, ownerID,
	))
}

func (r *TenantRepository) Update(ctx context.Context, t domain.Tenant) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET name = ?, slug = ?, owner_id = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.Slug, t.OwnerID, boolToInt(t.Active),
		formatTime(time.Now().UTC()), t.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.SlugConflictError{Slug: t.Slug}
		}
		return fmt.Errorf("updating tenant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrTenantNotFound
	}

	return nil
}

func (r *TenantRepository) scanTenant(row *sql.Row) (domain.Tenant, error) {
	var t domain.Tenant
	var active int
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.OwnerID, &active, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Tenant{}, domain.ErrTenantNotFound
		}
		return domain.Tenant{}, fmt.Errorf("scanning tenant: %w", err)
	}

	t.Active = active != 0
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
