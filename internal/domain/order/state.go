package order

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// Only the pending_payment -> confirmed edge is driven by this service; the
// rest belong to fulfilment and are listed so stores can validate them.
var transitions = map[Status][]Status{
	StatusPendingPayment: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered},
}

var rank = map[Status]int{
	StatusPendingPayment: 0,
	StatusConfirmed:      1,
	StatusPreparing:      2,
	StatusOutForDelivery: 3,
	StatusDelivered:      4,
}

func (s Status) Valid() bool {
	_, ok := rank[s]
	return ok || s == StatusCancelled
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AtLeast reports whether s is at or past other on the forward progression.
// Cancelled is off the progression and is never at least anything.
func (s Status) AtLeast(other Status) bool {
	a, ok := rank[s]
	if !ok {
		return false
	}
	b, ok := rank[other]
	if !ok {
		return false
	}
	return a >= b
}

// Transition is a conditional status change: it only applies while the
// stored status still equals From.
type Transition struct {
	From      Status
	To        Status
	PaymentID string
}

func ConfirmPayment(paymentID string) Transition {
	return Transition{
		From:      StatusPendingPayment,
		To:        StatusConfirmed,
		PaymentID: paymentID,
	}
}
