package order

import (
	"fmt"
	"time"
)

const (
	orderService   = "order-service"
	spanPrefix     = "UC."
	gatewayPeer    = "payment_gateway"
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond

	defaultCurrency            = "INR"
	defaultGatewayTimeout      = 5 * time.Second
	defaultCompensationTimeout = 10 * time.Second
)

// ReservationMode decides what happens to lines already reserved when a later
// line of the same order cannot be reserved.
type ReservationMode string

const (
	// ReservationAllOrNothing releases earlier lines before failing.
	ReservationAllOrNothing ReservationMode = "all_or_nothing"
	// ReservationLegacyPartial keeps earlier lines reserved, as the previous
	// implementation did. Only gateway failures trigger compensation.
	ReservationLegacyPartial ReservationMode = "legacy_partial"
)

func ParseReservationMode(s string) (ReservationMode, error) {
	switch m := ReservationMode(s); m {
	case "":
		return ReservationAllOrNothing, nil
	case ReservationAllOrNothing, ReservationLegacyPartial:
		return m, nil
	default:
		return "", fmt.Errorf("order: unknown reservation mode %q", s)
	}
}

type Options struct {
	Currency            string
	GatewayTimeout      time.Duration
	CompensationTimeout time.Duration
	ReservationMode     ReservationMode
}

func (o Options) withDefaults() Options {
	if o.Currency == "" {
		o.Currency = defaultCurrency
	}
	if o.GatewayTimeout <= 0 {
		o.GatewayTimeout = defaultGatewayTimeout
	}
	if o.CompensationTimeout <= 0 {
		o.CompensationTimeout = defaultCompensationTimeout
	}
	if o.ReservationMode == "" {
		o.ReservationMode = ReservationAllOrNothing
	}
	return o
}
