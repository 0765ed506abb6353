package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/inventory"
)

// ParseSeed reads products in the form "id:owner:price:quantity", comma separated.
func ParseSeed(list string) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("seed: %q: want id:owner:price:quantity", entry)
		}
		price, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("seed: %q: price: %w", entry, err)
		}
		qty, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return nil, fmt.Errorf("seed: %q: quantity: %w", entry, err)
		}
		p, err := domain.NewProduct(parts[0], parts[1], parts[0], price, qty)
		if err != nil {
			return nil, fmt.Errorf("seed: %q: %w", entry, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *InventoryRepository) Seed(ctx context.Context, products ...*domain.Product) error {
	for _, p := range products {
		if err := r.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
