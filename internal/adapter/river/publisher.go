package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/tiendix/tiendix/internal/domain"
)

// Compile-time check: Publisher implements domain.ReceiptPublisher.
var _ domain.ReceiptPublisher = (*Publisher)(nil)

// ReceiptLine is one order line as captured for the receipt document.
type ReceiptLine struct {
	SKU            string `json:"sku"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

// ReceiptJobArgs carries everything the document worker needs. River
// serializes this as JSON into its job queue table. It includes a snapshot
// of the order at fulfillment time, so the worker never needs to query the
// database.
type ReceiptJobArgs struct {
	OrderID    string        `json:"order_id"`
	TenantID   string        `json:"tenant_id"`
	BuyerName  string        `json:"buyer_name"`
	TotalCents int64         `json:"total_cents"`
	Lines      []ReceiptLine `json:"lines"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (ReceiptJobArgs) Kind() string { return "receipt.generate" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.ReceiptPublisher by enqueuing River jobs.
// Document generation stays off the request path: a slow or failing
// renderer can never block or roll back a committed transition.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a receipt-generation job for the fulfilled order.
func (p *Publisher) Publish(ctx context.Context, order domain.Order) error {
	args := ReceiptJobArgs{
		OrderID:    order.ID,
		TenantID:   order.TenantID,
		BuyerName:  order.BuyerName,
		TotalCents: order.TotalCents,
	}
	for _, line := range order.Lines {
		args.Lines = append(args.Lines, ReceiptLine{
			SKU:            line.SKU,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			SubtotalCents:  line.SubtotalCents,
		})
	}

	if _, err := p.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("enqueuing receipt job: %w", err)
	}
	return nil
}
