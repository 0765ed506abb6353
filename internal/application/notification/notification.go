// Package notification tells the people involved in an order that it was paid.
package notification

import (
	"context"
	"time"

	domorder "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
)

type Kind string

const (
	// KindOrderConfirmed goes to the consumer who placed the order.
	KindOrderConfirmed Kind = "order_confirmed"
	// KindNewOrder goes to each farmer whose produce is in the order.
	KindNewOrder Kind = "new_order"
)

type Notice struct {
	Kind        Kind                     `json:"kind"`
	RecipientID string                   `json:"recipient_id"`
	OrderID     string                   `json:"order_id"`
	PaymentID   string                   `json:"payment_id,omitempty"`
	TotalAmount float64                  `json:"total_amount"`
	Lines       []domorder.ConfirmedLine `json:"lines"`
	OccurredAt  time.Time                `json:"occurred_at"`
}

// Notifier is an outbound port for one delivery channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notice) error
}

// Notices derives the consumer notice and one notice per distinct owner. Owner
// notices only carry that owner's lines.
func Notices(evt domorder.OrderConfirmedEvent) []Notice {
	out := make([]Notice, 0, 1+len(evt.Lines))
	out = append(out, Notice{
		Kind:        KindOrderConfirmed,
		RecipientID: evt.ConsumerID,
		OrderID:     evt.OrderID,
		PaymentID:   evt.PaymentID,
		TotalAmount: evt.TotalAmount,
		Lines:       append([]domorder.ConfirmedLine(nil), evt.Lines...),
		OccurredAt:  evt.OccurredAt,
	})

	for _, owner := range evt.Owners() {
		var lines []domorder.ConfirmedLine
		for _, l := range evt.Lines {
			if l.OwnerID == owner {
				lines = append(lines, l)
			}
		}
		out = append(out, Notice{
			Kind:        KindNewOrder,
			RecipientID: owner,
			OrderID:     evt.OrderID,
			TotalAmount: evt.TotalAmount,
			Lines:       lines,
			OccurredAt:  evt.OccurredAt,
		})
	}
	return out
}
