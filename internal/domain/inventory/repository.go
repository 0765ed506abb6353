package inventory

import (
	"context"
)

// Catalog resolves product data owned by the catalog service.
type Catalog interface {
	Get(ctx context.Context, productID string) (*Product, error)
}

// Ledger owns AvailableQuantity. Both operations are single conditional
// updates and return the quantity left after the change.
type Ledger interface {
	Reserve(ctx context.Context, productID string, quantity float64) (float64, error)
	Release(ctx context.Context, productID string, quantity float64) (float64, error)
}
