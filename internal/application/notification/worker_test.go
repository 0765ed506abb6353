package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domorder "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	domoutbox "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/outbox"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	name string
	err  error

	mu   sync.Mutex
	sent []Notice
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

type stubSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (s *stubSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[string]domoutbox.Handler)
	}
	s.handlers[name] = h
}

func confirmedEvent() domorder.OrderConfirmedEvent {
	return domorder.OrderConfirmedEvent{
		OrderID:     "ord-1",
		ConsumerID:  "consumer-1",
		TotalAmount: 42,
		PaymentID:   "pay_1",
		Lines: []domorder.ConfirmedLine{
			{ProductID: "tomato", OwnerID: "farmer-a", Quantity: 2},
			{ProductID: "onion", OwnerID: "farmer-b", Quantity: 1},
			{ProductID: "chili", OwnerID: "farmer-a", Quantity: 0.5},
		},
		OccurredAt: time.Now().UTC(),
	}
}

func TestNoticesFanOutPerOwner(t *testing.T) {
	notices := Notices(confirmedEvent())
	require.Len(t, notices, 3)

	assert.Equal(t, KindOrderConfirmed, notices[0].Kind)
	assert.Equal(t, "consumer-1", notices[0].RecipientID)
	assert.Len(t, notices[0].Lines, 3)

	assert.Equal(t, KindNewOrder, notices[1].Kind)
	assert.Equal(t, "farmer-a", notices[1].RecipientID)
	assert.Len(t, notices[1].Lines, 2)
	assert.Empty(t, notices[1].PaymentID)

	assert.Equal(t, "farmer-b", notices[2].RecipientID)
	assert.Len(t, notices[2].Lines, 1)
}

func TestWorkerSubscribesAndDelivers(t *testing.T) {
	sub := &stubSubscriber{}
	sink := &recordingNotifier{name: "log"}
	w := NewWorker(sub, observability.Nop(), sink)
	w.Start()

	h, ok := sub.handlers[domorder.OrderConfirmedEvent{}.EventName()]
	require.True(t, ok)
	require.NoError(t, h(context.Background(), confirmedEvent()))
	assert.Len(t, sink.sent, 3)
}

func TestWorkerKeepsGoingWhenOneSinkFails(t *testing.T) {
	broken := &recordingNotifier{name: "kafka", err: errors.New("broker down")}
	healthy := &recordingNotifier{name: "log"}
	w := NewWorker(nil, observability.Nop(), broken, healthy)

	err := w.Handle(context.Background(), confirmedEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, broken.sent, 3)
	assert.Len(t, healthy.sent, 3)
}

type otherEvent struct{}

func (otherEvent) EventName() string { return "order.other" }

func TestWorkerIgnoresOtherEvents(t *testing.T) {
	sink := &recordingNotifier{name: "log"}
	w := NewWorker(nil, observability.Nop(), sink)

	require.NoError(t, w.Handle(context.Background(), otherEvent{}))
	assert.Empty(t, sink.sent)
}
