package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// ListByConsumer returns the consumer's orders, newest first.
	ListByConsumer(ctx context.Context, consumerID string) ([]*Order, error)
	// AttachIntent stores intentID on a pending order that has none yet.
	AttachIntent(ctx context.Context, id, intentID string) (*Order, error)
	// TransitionStatus fails with ErrConflict when the stored status is no longer t.From.
	TransitionStatus(ctx context.Context, id string, t Transition) (*Order, error)
	Delete(ctx context.Context, id string) error
}
