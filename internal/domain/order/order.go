package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: conflict")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
	ErrNoLines                = errors.New("order: at least one line is required")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice           = errors.New("order: unit price must be zero or greater")
	ErrInvalidTotal           = errors.New("order: total must be greater than zero")
	ErrConsumerRequired       = errors.New("order: consumer id is required")
	ErrAddressRequired        = errors.New("order: delivery address is required")
)

// Line is one reserved product of an order. UnitPrice is the catalog price
// captured when the line was reserved.
type Line struct {
	ProductID string
	OwnerID   string
	Quantity  float64
	UnitPrice float64
}

func (l Line) Subtotal() float64 {
	return l.Quantity * l.UnitPrice
}

type Order struct {
	ID              string
	ConsumerID      string
	Lines           []Line
	TotalAmount     float64
	Status          Status
	DeliveryAddress string
	OrderDate       time.Time
	IntentID        string
	PaymentID       string
	UpdatedAt       time.Time
}

// New builds an order in StatusPendingPayment. TotalAmount is computed here
// once and never recomputed.
func New(id, consumerID, deliveryAddress string, lines []Line) (*Order, error) {
	if consumerID == "" {
		return nil, ErrConsumerRequired
	}
	if deliveryAddress == "" {
		return nil, ErrAddressRequired
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	var total float64
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if l.UnitPrice < 0 {
			return nil, ErrInvalidPrice
		}
		total += l.Subtotal()
	}
	if total <= 0 {
		return nil, ErrInvalidTotal
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		ConsumerID:      consumerID,
		Lines:           append([]Line(nil), lines...),
		TotalAmount:     total,
		Status:          StatusPendingPayment,
		DeliveryAddress: deliveryAddress,
		OrderDate:       now,
		UpdatedAt:       now,
	}, nil
}

// AttachIntent records the gateway intent opened for this order.
func (o *Order) AttachIntent(intentID string) error {
	if o.Status != StatusPendingPayment || o.IntentID != "" {
		return ErrInvalidStateTransition
	}
	o.IntentID = intentID
	o.touch()
	return nil
}

// Apply moves the order along t. The order must currently be in t.From.
func (o *Order) Apply(t Transition) error {
	if o.Status != t.From {
		return ErrConflict
	}
	if !t.From.CanTransitionTo(t.To) {
		return ErrInvalidStateTransition
	}
	o.Status = t.To
	if t.PaymentID != "" {
		o.PaymentID = t.PaymentID
	}
	o.touch()
	return nil
}

func (o *Order) OwnedBy(consumerID string) bool {
	return consumerID != "" && o.ConsumerID == consumerID
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
