package order

import "time"

type ConfirmedLine struct {
	ProductID string
	OwnerID   string
	Quantity  float64
}

// OrderConfirmedEvent is emitted once, by the call that moved the order from
// pending_payment to confirmed.
type OrderConfirmedEvent struct {
	OrderID     string
	ConsumerID  string
	TotalAmount float64
	PaymentID   string
	Lines       []ConfirmedLine
	OccurredAt  time.Time
}

func (OrderConfirmedEvent) EventName() string { return "order.confirmed" }

func (e OrderConfirmedEvent) AggregateID() string { return e.OrderID }

func NewOrderConfirmedEvent(o *Order) OrderConfirmedEvent {
	lines := make([]ConfirmedLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, ConfirmedLine{
			ProductID: l.ProductID,
			OwnerID:   l.OwnerID,
			Quantity:  l.Quantity,
		})
	}
	return OrderConfirmedEvent{
		OrderID:     o.ID,
		ConsumerID:  o.ConsumerID,
		TotalAmount: o.TotalAmount,
		PaymentID:   o.PaymentID,
		Lines:       lines,
		OccurredAt:  time.Now().UTC(),
	}
}

// Owners returns the distinct product owners of the event, in line order.
func (e OrderConfirmedEvent) Owners() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	out := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if l.OwnerID == "" {
			continue
		}
		if _, ok := seen[l.OwnerID]; ok {
			continue
		}
		seen[l.OwnerID] = struct{}{}
		out = append(out, l.OwnerID)
	}
	return out
}
