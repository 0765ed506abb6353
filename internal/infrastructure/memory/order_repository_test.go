package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingOrder(t *testing.T, id, consumer string) *domain.Order {
	t.Helper()
	o, err := domain.New(id, consumer, "addr", []domain.Line{{ProductID: "p-1", Quantity: 1, UnitPrice: 10}})
	require.NoError(t, err)
	return o
}

func TestOrderInsertGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	o := newPendingOrder(t, "o-1", "c-1")

	require.NoError(t, repo.Insert(ctx, o))
	assert.ErrorIs(t, repo.Insert(ctx, o), domain.ErrConflict)

	got, err := repo.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, o.TotalAmount, got.TotalAmount)

	require.NoError(t, repo.Delete(ctx, "o-1"))
	_, err = repo.Get(ctx, "o-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "o-1"), domain.ErrNotFound)

	list, err := repo.ListByConsumer(ctx, "c-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOrderAttachIntent(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	require.NoError(t, repo.Insert(ctx, newPendingOrder(t, "o-1", "c-1")))

	got, err := repo.AttachIntent(ctx, "o-1", "order_x")
	require.NoError(t, err)
	assert.Equal(t, "order_x", got.IntentID)

	_, err = repo.AttachIntent(ctx, "o-1", "order_y")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.AttachIntent(ctx, "missing", "order_y")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	require.NoError(t, repo.Insert(ctx, newPendingOrder(t, "o-1", "c-1")))

	var wg sync.WaitGroup
	var won, conflicts atomic.Int64
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.TransitionStatus(ctx, "o-1", domain.ConfirmPayment("pay_1"))
			switch {
			case err == nil:
				won.Add(1)
			case assert.ErrorIs(t, err, domain.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), won.Load())
	assert.Equal(t, int64(31), conflicts.Load())

	got, err := repo.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, "pay_1", got.PaymentID)
}

func TestListByConsumerNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	older := newPendingOrder(t, "o-old", "c-1")
	older.OrderDate = time.Now().Add(-time.Hour)
	newer := newPendingOrder(t, "o-new", "c-1")
	other := newPendingOrder(t, "o-other", "c-2")
	for _, o := range []*domain.Order{older, newer, other} {
		require.NoError(t, repo.Insert(ctx, o))
	}

	list, err := repo.ListByConsumer(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o-new", list[0].ID)
	assert.Equal(t, "o-old", list[1].ID)
}
