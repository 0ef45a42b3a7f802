package domain

// Variant is a specific purchasable SKU of a product, carrying its own price
// and stock count. The tenant reference is denormalized for fast scoping.
// Stock is mutated only through the InventoryLedger; it never goes negative.
type Variant struct {
	ID         string
	TenantID   string
	ProductID  string
	SKU        string
	PriceCents int64
	Stock      int
}
