package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tiendix/tiendix/internal/domain"
)

// InventoryLedger implements domain.InventoryLedger with an atomic
// compare-and-decrement. The conditional UPDATE either reserves the full
// quantity or touches nothing, so two simultaneous checkouts of the last
// unit can never both succeed.
type InventoryLedger struct {
	db *sql.DB
}

// Compile-time check: InventoryLedger implements domain.InventoryLedger.
var _ domain.InventoryLedger = (*InventoryLedger)(nil)

// NewInventoryLedger wraps a prepared database connection.
func NewInventoryLedger(db *sql.DB) *InventoryLedger {
	return &InventoryLedger{db: db}
}

func (l *InventoryLedger) Reserve(ctx context.Context, variantID string, qty int) error {
	return reserveStock(ctx, l.db, variantID, qty)
}

func (l *InventoryLedger) Release(ctx context.Context, variantID string, qty int) error {
	return releaseStock(ctx, l.db, variantID, qty)
}

// execer abstracts *sql.DB and *sql.Tx so the ledger operations can run
// both standalone and inside an order transition's transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// reserveStock decrements stock only when enough is available. Zero rows
// affected means the compare failed; the variant is re-read to report the
// shortfall.
func reserveStock(ctx context.Context, ex execer, variantID string, qty int) error {
	result, err := ex.ExecContext(ctx,
		`UPDATE variants SET stock = stock - ? WHERE id = ? AND stock >= ?`,
		qty, variantID, qty,
	)
	if err != nil {
		return fmt.Errorf("reserving stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var sku string
	var available int
	err = ex.QueryRowContext(ctx,
		`SELECT sku, stock FROM variants WHERE id = ?`, variantID,
	).Scan(&sku, &available)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrVariantNotFound
		}
		return fmt.Errorf("reading variant after failed reserve: %w", err)
	}

	return &domain.InsufficientStockError{
		SKU:       sku,
		Available: available,
		Required:  qty,
	}
}

// releaseStock unconditionally returns qty units to the variant's stock.
func releaseStock(ctx context.Context, ex execer, variantID string, qty int) error {
	result, err := ex.ExecContext(ctx,
		`UPDATE variants SET stock = stock + ? WHERE id = ?`,
		qty, variantID,
	)
	if err != nil {
		return fmt.Errorf("releasing stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrVariantNotFound
	}

	return nil
}
