package outbox

import "context"

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

// Keyed events name the aggregate they describe. Sinks partition on it so
// events of one order stay in order.
type Keyed interface {
	Event
	AggregateID() string
}

// KeyOf returns the aggregate id of e, or "" when e does not carry one.
func KeyOf(e Event) string {
	if k, ok := e.(Keyed); ok {
		return k.AggregateID()
	}
	return ""
}

// Handler processes a published event. Returned errors are logged by the bus
// and never reach the publisher.
type Handler func(ctx context.Context, e Event) error

// Publisher hands events to the bus after the state change they describe is
// stored.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
