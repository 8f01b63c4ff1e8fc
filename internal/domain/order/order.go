package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// ErrNotFound is returned when an order id is unknown.
var ErrNotFound = errors.New("order not found")

// Type is how the order is served.
type Type string

const (
	TypeDineIn   Type = "dine-in"
	TypeDelivery Type = "delivery"
	TypeToGo     Type = "to-go"
)

// Valid reports whether t is a known order type.
func (t Type) Valid() bool {
	return t == TypeDineIn || t == TypeDelivery || t == TypeToGo
}

// PaymentStatus tracks whether an order has been settled.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodOnline PaymentMethod = "online"
	MethodQR     PaymentMethod = "qr"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodOnline || m == MethodQR
}

// Location is a customer's shared position for to-go and delivery orders.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Item is a point-in-time snapshot of an ordered product.
type Item struct {
	ProductID   string           `json:"product_id"`
	ProductName string           `json:"product_name"`
	Quantity    int              `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Category    product.Category `json:"category,omitempty"`
}

// Total returns Price * Quantity.
func (i Item) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a customer order with its pricing snapshot.
type Order struct {
	ID            string
	OrderNumber   string
	CustomerID    string // empty for guests
	CustomerName  string
	CustomerEmail string
	Type          Type
	TableID       string
	TableNumber   *int
	Items         []Item
	Subtotal      decimal.Decimal
	Discount      *loyalty.DiscountInfo
	Total         decimal.Decimal
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod // empty until paid
	Location      *Location
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transaction is the immutable record of a payment.
type Transaction struct {
	ID            string
	OrderID       string
	Amount        decimal.Decimal
	PaymentMethod PaymentMethod
	Receipt       Receipt
	CreatedAt     time.Time
}

// Filter narrows an order listing. Empty fields match all.
type Filter struct {
	Status     Status
	Type       Type
	CustomerID string
}

// Match reports whether o passes the filter.
func (f Filter) Match(o Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Type != "" && o.Type != f.Type {
		return false
	}
	if f.CustomerID != "" && o.CustomerID != f.CustomerID {
		return false
	}
	return true
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// List returns matching orders, newest first.
	List(ctx context.Context, filter Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
	UpdateLocation(ctx context.Context, id string, loc Location, at time.Time) error
	// RecordPayment stores o's payment fields and status together with t.
	RecordPayment(ctx context.Context, o *Order, t *Transaction) error
}

// TransactionRepository reads payment records.
type TransactionRepository interface {
	// ListTransactions returns all transactions, newest first.
	ListTransactions(ctx context.Context) ([]Transaction, error)
}

// ValidationError reports a malformed field in order input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
