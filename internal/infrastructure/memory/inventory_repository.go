package memory

import (
	"context"
	"sync"

	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/inventory"
)

// InventoryRepository is both the product catalog and the inventory ledger.
// Reserve and Release hold the write lock for a single check-and-update, so
// concurrent reservations of the last unit cannot both succeed.
type InventoryRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Product
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		items: make(map[string]*domain.Product),
	}
}

func (r *InventoryRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(item), nil
}

// Save upserts a product. Catalog maintenance only; stock changes for orders go
// through Reserve and Release.
func (r *InventoryRepository) Save(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[product.ID] = cloneProduct(product)
	return nil
}

func (r *InventoryRepository) Reserve(ctx context.Context, productID string, quantity float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[productID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if err := item.Reserve(quantity); err != nil {
		return item.AvailableQuantity, err
	}
	return item.AvailableQuantity, nil
}

// Release ignores ctx cancellation: it runs on compensation paths that must
// finish even when the caller has gone away.
func (r *InventoryRepository) Release(ctx context.Context, productID string, quantity float64) (float64, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[productID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if err := item.Release(quantity); err != nil {
		return item.AvailableQuantity, err
	}
	return item.AvailableQuantity, nil
}

func cloneProduct(item *domain.Product) *domain.Product {
	if item == nil {
		return nil
	}
	clone := *item
	return &clone
}
