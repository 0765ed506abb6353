package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
)

type OrderRepository struct {
	mu         sync.RWMutex
	orders     map[string]*domain.Order
	byConsumer map[string]map[string]struct{}
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:     make(map[string]*domain.Order),
		byConsumer: make(map[string]map[string]struct{}),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}

	r.orders[order.ID] = cloneOrder(order)
	ids, ok := r.byConsumer[order.ConsumerID]
	if !ok {
		ids = make(map[string]struct{})
		r.byConsumer[order.ConsumerID] = ids
	}
	ids[order.ID] = struct{}{}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return cloneOrder(order), nil
}

func (r *OrderRepository) ListByConsumer(ctx context.Context, consumerID string) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Order, 0, len(r.byConsumer[consumerID]))
	for id := range r.byConsumer[consumerID] {
		out = append(out, cloneOrder(r.orders[id]))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].OrderDate.After(out[j].OrderDate)
	})
	return out, nil
}

func (r *OrderRepository) AttachIntent(ctx context.Context, id, intentID string) (*domain.Order, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := cloneOrder(stored)
	if err := next.AttachIntent(intentID); err != nil {
		return nil, domain.ErrConflict
	}
	r.orders[id] = next
	return cloneOrder(next), nil
}

func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, t domain.Transition) (*domain.Order, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := cloneOrder(stored)
	if err := next.Apply(t); err != nil {
		return nil, err
	}
	r.orders[id] = next
	return cloneOrder(next), nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.orders, id)
	if ids, ok := r.byConsumer[order.ConsumerID]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.byConsumer, order.ConsumerID)
		}
	}
	return nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	if order == nil {
		return nil
	}
	clone := order.Clone()
	return clone
}
