package payment

import (
	"context"
	"errors"
)

var (
	ErrGateway       = errors.New("payment: gateway error")
	ErrInvalidAmount = errors.New("payment: amount must be greater than zero")
)

// Intent is a provisional payment opened with the processor before the payer
// completes checkout.
type Intent struct {
	ID          string
	ReferenceID string
	AmountMinor int64
	Currency    string
}

// Gateway is the outbound port to the payment processor.
type Gateway interface {
	CreateIntent(ctx context.Context, referenceID string, amountMinor int64, currency string) (Intent, error)
	ComputeSignature(intentID, paymentID string) string
	VerifySignature(intentID, paymentID, signature string) bool
	// PublicKey is handed to the client so it can complete checkout.
	PublicKey() string
}

// ToMinorUnits converts a major-unit amount the way the processor SDK does:
// multiply by 100 and truncate toward zero.
func ToMinorUnits(amount float64) int64 {
	return int64(amount * 100)
}
