package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tiendix/tiendix/internal/domain"
)

// OrderRepository implements domain.OrderRepository using SQLite. An order
// and its lines always move together in one transaction.
type OrderRepository struct {
	db *sql.DB
}

// Compile-time check: OrderRepository implements domain.OrderRepository.
var _ domain.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository wraps a prepared database connection.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, tenant_id, buyer_user_id, session_id, status, total_cents, buyer_name, shipping_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.TenantID, order.BuyerUserID, order.SessionID,
		string(order.Status), order.TotalCents, order.BuyerName,
		order.ShippingAddress, formatTime(order.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_lines (id, order_id, variant_id, sku, quantity, unit_price_cents, subtotal_cents)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			line.ID, order.ID, line.VariantID, line.SKU,
			line.Quantity, line.UnitPriceCents, line.SubtotalCents,
		)
		if err != nil {
			return fmt.Errorf("inserting order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, tenantID, id string) (domain.Order, error) {
	var o domain.Order
	var status, createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, buyer_user_id, session_id, status, total_cents, buyer_name, shipping_address, created_at
		 FROM orders WHERE id = ? AND tenant_id = ?`, id, tenantID,
	).Scan(&o.ID, &o.TenantID, &o.BuyerUserID, &o.SessionID, &status,
		&o.TotalCents, &o.BuyerName, &o.ShippingAddress, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("scanning order: %w", err)
	}

	o.Status = domain.OrderStatus(status)
	o.CreatedAt = parseTime(createdAt)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, variant_id, sku, quantity, unit_price_cents, subtotal_cents
		 FROM order_lines WHERE order_id = ? ORDER BY rowid`, id,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("listing order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.VariantID, &line.SKU,
			&line.Quantity, &line.UnitPriceCents, &line.SubtotalCents); err != nil {
			return domain.Order{}, fmt.Errorf("scanning order line: %w", err)
		}
		o.Lines = append(o.Lines, line)
	}

	return o, rows.Err()
}

// ApplyTransition commits the new status and the ledger effect for every
// line as one unit. Any failed reservation rolls the whole batch back: no
// partial stock deduction survives a rejected transition.
//
// The status update is guarded on the order's loaded status, so two racing
// requests working from the same snapshot cannot both apply their ledger
// effect: the loser rolls back with *IllegalStateError.
func (r *OrderRepository) ApplyTransition(ctx context.Context, order domain.Order, to domain.OrderStatus, effect domain.LedgerEffect) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, line := range order.Lines {
		switch effect {
		case domain.EffectReserve:
			if err := reserveStock(ctx, tx, line.VariantID, line.Quantity); err != nil {
				return err
			}
		case domain.EffectRelease:
			if err := releaseStock(ctx, tx, line.VariantID, line.Quantity); err != nil {
				return err
			}
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ? AND tenant_id = ? AND status = ?`,
		string(to), order.ID, order.TenantID, string(order.Status),
	)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = ? AND tenant_id = ?`,
			order.ID, order.TenantID,
		).Scan(&current)
		if err == sql.ErrNoRows {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("checking order status: %w", err)
		}
		return &domain.IllegalStateError{Op: "transition to " + string(to), State: current}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transition: %w", err)
	}
	return nil
}
