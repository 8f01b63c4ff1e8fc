package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/order"
)

const (
	orderColumns = `id, order_number, customer_id, customer_name, customer_email, order_type,
		table_id, table_number, items, subtotal, discount_info, total_amount, status,
		payment_status, payment_method, customer_location, notes, created_at, updated_at`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1::text = '' OR status = $1)
			AND ($2::text = '' OR order_type = $2)
			AND ($3::text = '' OR customer_id = $3)
		ORDER BY created_at DESC, id DESC`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	updateOrderLocationSQL = `UPDATE orders SET customer_location = $2, updated_at = $3 WHERE id = $1`

	recordPaymentSQL = `UPDATE orders SET
			payment_status = $2, payment_method = $3, status = $4, updated_at = $5
		WHERE id = $1`

	createTransactionSQL = `INSERT INTO transactions (id, order_id, amount, payment_method, receipt_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	listTransactionsSQL = `SELECT id, order_id, amount, payment_method, receipt_data, created_at
		FROM transactions ORDER BY created_at DESC, id DESC`
)

var (
	_ order.Repository            = (*OrderRepository)(nil)
	_ order.TransactionRepository = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Items, the discount breakdown and the
// location are serialized to JSON for storage in JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	discount, err := marshalNullable(o.Discount)
	if err != nil {
		return fmt.Errorf("marshaling discount: %w", err)
	}
	location, err := marshalNullable(o.Location)
	if err != nil {
		return fmt.Errorf("marshaling location: %w", err)
	}

	if _, err := r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.OrderNumber, o.CustomerID, o.CustomerName, o.CustomerEmail, string(o.Type),
		o.TableID, o.TableNumber, items, o.Subtotal, discount, o.Total, string(o.Status),
		string(o.PaymentStatus), string(o.PaymentMethod), location, o.Notes, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context, filter order.Filter) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL,
		string(filter.Status), string(filter.Type), filter.CustomerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status, at time.Time) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status), at)
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) UpdateLocation(ctx context.Context, id string, loc order.Location, at time.Time) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshaling location: %w", err)
	}
	tag, err := r.pool.Exec(ctx, updateOrderLocationSQL, id, data, at)
	if err != nil {
		return fmt.Errorf("updating location of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// RecordPayment updates the order and inserts the transaction in one
// database transaction.
func (r *OrderRepository) RecordPayment(ctx context.Context, o *order.Order, t *order.Transaction) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, recordPaymentSQL,
			o.ID, string(o.PaymentStatus), string(o.PaymentMethod), string(o.Status), o.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("updating payment of order %q: %w", o.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return order.ErrNotFound
		}
		if _, err := tx.Exec(ctx, createTransactionSQL,
			t.ID, t.OrderID, t.Amount, string(t.PaymentMethod), t.Receipt.Encode(), t.CreatedAt,
		); err != nil {
			return fmt.Errorf("creating transaction %q: %w", t.ID, err)
		}
		return nil
	})
}

func (r *OrderRepository) ListTransactions(ctx context.Context) ([]order.Transaction, error) {
	rows, err := r.pool.Query(ctx, listTransactionsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Transaction, error) {
		var (
			t       order.Transaction
			method  string
			receipt []byte
		)
		if err := row.Scan(&t.ID, &t.OrderID, &t.Amount, &method, &receipt, &t.CreatedAt); err != nil {
			return t, err
		}
		t.PaymentMethod = order.PaymentMethod(method)
		rc, err := order.DecodeReceipt(receipt)
		if err != nil {
			return t, fmt.Errorf("transaction %q: %w", t.ID, err)
		}
		t.Receipt = rc
		return t, nil
	})
}

// marshalNullable returns nil for a nil pointer so the column is NULL.
func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                         order.Order
		orderType, status         string
		paymentStatus, method     string
		items, discount, location []byte
	)
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &orderType,
		&o.TableID, &o.TableNumber, &items, &o.Subtotal, &discount, &o.Total, &status,
		&paymentStatus, &method, &location, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return o, err
	}
	o.Type = order.Type(orderType)
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	o.PaymentMethod = order.PaymentMethod(method)

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items of order %q: %w", o.ID, err)
	}
	if discount != nil {
		o.Discount = new(loyalty.DiscountInfo)
		if err := json.Unmarshal(discount, o.Discount); err != nil {
			return o, fmt.Errorf("unmarshaling discount of order %q: %w", o.ID, err)
		}
	}
	if location != nil {
		o.Location = new(order.Location)
		if err := json.Unmarshal(location, o.Location); err != nil {
			return o, fmt.Errorf("unmarshaling location of order %q: %w", o.ID, err)
		}
	}
	return o, nil
}
