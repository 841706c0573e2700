package order

import (
	"context"
	"sync"
)

// memoryRepository is an in-memory Repository for local development and
// tests. Per-reference mutexes give Reconcile the same exclusion semantics
// as the Postgres row lock without serializing across orders.
type memoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*Order
	nextID uint

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		orders: make(map[string]*Order),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (r *memoryRepository) refLock(reference string) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()

	l, ok := r.locks[reference]
	if !ok {
		l = &sync.Mutex{}
		r.locks[reference] = l
	}
	return l
}

func (r *memoryRepository) Create(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	o.ID = r.nextID
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		o.Items[i].ID = uint(i + 1)
	}

	cp := cloneOrder(o)
	r.orders[o.Reference] = cp
	return nil
}

func (r *memoryRepository) GetByReference(ctx context.Context, reference string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[reference]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *memoryRepository) Reconcile(ctx context.Context, reference string, fn func(ctx context.Context, o *Order) error) (*Order, error) {
	lock := r.refLock(reference)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	stored, ok := r.orders[reference]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrOrderNotFound
	}

	o := cloneOrder(stored)
	if err := fn(ctx, o); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.orders[reference] = cloneOrder(o)
	r.mu.Unlock()

	return o, nil
}

// cloneOrder copies the aggregate so callers cannot mutate stored state.
func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = make([]OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}
