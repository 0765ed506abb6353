package inventory

import (
	"errors"
	"time"
)

var (
	ErrNotFound              = errors.New("inventory: product not found")
	ErrInvalidQuantity       = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientInventory = errors.New("inventory: insufficient inventory")
)

const (
	ReleaseReasonLineFailed    = "line_failed"
	ReleaseReasonInvalidTotal  = "invalid_total"
	ReleaseReasonPersistFailed = "persist_failed"
	ReleaseReasonIntentFailed  = "intent_failed"
)

// Product is the reservable resource. AvailableQuantity is only changed
// through a Ledger and never drops below zero.
type Product struct {
	ID                string
	OwnerID           string
	Name              string
	UnitPrice         float64
	AvailableQuantity float64
	UpdatedAt         time.Time
}

func NewProduct(id, ownerID, name string, unitPrice, available float64) (*Product, error) {
	if available < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Product{
		ID:                id,
		OwnerID:           ownerID,
		Name:              name,
		UnitPrice:         unitPrice,
		AvailableQuantity: available,
		UpdatedAt:         time.Now().UTC(),
	}, nil
}

// Reserve decrements the available quantity when enough stock is left.
func (p *Product) Reserve(quantity float64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.AvailableQuantity {
		return ErrInsufficientInventory
	}
	p.AvailableQuantity -= quantity
	p.touch()
	return nil
}

func (p *Product) Release(quantity float64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.AvailableQuantity += quantity
	p.touch()
	return nil
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
