package order

import (
	"errors"
	"fmt"

	dominv "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/inventory"
	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
)

// Every error returned by the order use cases matches exactly one of these
// with errors.Is (ErrPaymentIntentCreationFailed also matches ErrGateway).
var (
	ErrValidation            = errors.New("order: validation failed")
	ErrNotFound              = errors.New("order: not found")
	ErrInsufficientInventory = errors.New("order: insufficient inventory")
	ErrAuthorization         = errors.New("order: not authorized")
	ErrGateway               = errors.New("order: payment gateway failure")
	ErrSignature             = errors.New("order: payment signature mismatch")
	ErrConflict              = errors.New("order: concurrent update conflict")
	ErrRepository            = errors.New("order: repository failure")

	ErrPaymentIntentCreationFailed = fmt.Errorf("order: payment intent creation failed: %w", ErrGateway)
)

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, domain.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}

func wrapInventoryError(productID string, err error) error {
	switch {
	case errors.Is(err, dominv.ErrNotFound):
		return fmt.Errorf("%w: product %s: %w", ErrNotFound, productID, err)
	case errors.Is(err, dominv.ErrInsufficientInventory):
		return fmt.Errorf("%w: product %s: %w", ErrInsufficientInventory, productID, err)
	case errors.Is(err, dominv.ErrInvalidQuantity):
		return fmt.Errorf("%w: product %s: %w", ErrValidation, productID, err)
	default:
		return fmt.Errorf("%w: product %s: %w", ErrRepository, productID, err)
	}
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
