package memory

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/order"
)

var (
	_ order.Repository            = (*OrderRepository)(nil)
	_ order.TransactionRepository = (*OrderRepository)(nil)
)

// OrderRepository keeps orders and their transactions in memory.
type OrderRepository struct {
	orders       *table[order.Order]
	transactions *table[order.Transaction]
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:       newTable[order.Order](),
		transactions: newTable[order.Transaction](),
	}
}

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	if !r.orders.insert(o.ID, cp) {
		return errors.Errorf("order %q already exists", o.ID)
	}
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	o, ok := r.orders.get(id)
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

// List returns matching orders, newest first.
func (r *OrderRepository) List(_ context.Context, filter order.Filter) ([]order.Order, error) {
	out := r.orders.list(filter.Match)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b order.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, status order.Status, at time.Time) error {
	if !r.orders.update(id, func(o *order.Order) {
		o.Status = status
		o.UpdatedAt = at
	}) {
		return order.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) UpdateLocation(_ context.Context, id string, loc order.Location, at time.Time) error {
	if !r.orders.update(id, func(o *order.Order) {
		o.Location = &loc
		o.UpdatedAt = at
	}) {
		return order.ErrNotFound
	}
	return nil
}

// RecordPayment copies the payment fields of o onto the stored order and
// stores t. Both writes happen under the order table lock.
func (r *OrderRepository) RecordPayment(_ context.Context, o *order.Order, t *order.Transaction) error {
	r.orders.mu.Lock()
	defer r.orders.mu.Unlock()

	cur, ok := r.orders.items[o.ID]
	if !ok {
		return order.ErrNotFound
	}
	cur.PaymentStatus = o.PaymentStatus
	cur.PaymentMethod = o.PaymentMethod
	cur.Status = o.Status
	cur.UpdatedAt = o.UpdatedAt
	r.orders.items[o.ID] = cur

	r.transactions.set(t.ID, *t)
	return nil
}

// ListTransactions returns all transactions, newest first.
func (r *OrderRepository) ListTransactions(_ context.Context) ([]order.Transaction, error) {
	out := r.transactions.list(nil)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b order.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
