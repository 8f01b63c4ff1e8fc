package order

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/inventory"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context, _ product.Filter) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockResolver struct {
	byCustomer map[string]*loyalty.Membership
	err        error
}

func (m *mockResolver) ResolveActive(_ context.Context, customerID string) (*loyalty.Membership, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byCustomer[customerID], nil
}

type mockOrderRepo struct {
	mu        sync.Mutex
	byID      map[string]*Order
	txns      []Transaction
	createErr error
}

func newOrderRepo(orders ...Order) *mockOrderRepo {
	m := &mockOrderRepo{byID: make(map[string]*Order)}
	for i := range orders {
		m.byID[orders[i].ID] = &orders[i]
	}
	return m
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context, filter Filter) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.byID {
		if filter.Match(*o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	return nil
}

func (m *mockOrderRepo) UpdateLocation(_ context.Context, id string, loc Location, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	o.Location = &loc
	o.UpdatedAt = at
	return nil
}

func (m *mockOrderRepo) RecordPayment(_ context.Context, o *Order, t *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.byID[o.ID] = &cp
	m.txns = append(m.txns, *t)
	return nil
}

func (m *mockOrderRepo) ListTransactions(_ context.Context) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Transaction(nil), m.txns...), nil
}

type mockAdjuster struct {
	calls [][]inventory.Line
	err   error
}

func (m *mockAdjuster) Adjust(_ context.Context, lines []inventory.Line, _ map[string]product.Product) error {
	m.calls = append(m.calls, lines)
	return m.err
}

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func menu() *mockProductRepo {
	return &mockProductRepo{byID: map[string]product.Product{
		"croissant": {ID: "croissant", Name: "Croissant", Category: product.CategoryFood, Price: dec("5.00")},
		"latte":     {ID: "latte", Name: "Latte", Category: product.CategoryBeverage, Price: dec("3.50")},
	}}
}

func goldMembership() *loyalty.Membership {
	return &loyalty.Membership{
		ID:          "m1",
		CustomerID:  "c1",
		ProgramName: "Gold",
		Status:      loyalty.StatusActive,
		Benefits: []loyalty.Benefit{
			{Type: loyalty.BenefitFoodDiscount, Value: dec("15")},
			{Type: loyalty.BenefitBeverageDiscount, Value: dec("10")},
		},
	}
}

type fixture struct {
	orders   *mockOrderRepo
	adjuster *mockAdjuster
	svc      *Service
}

func newFixture(resolver *mockResolver, opts ...Option) *fixture {
	f := &fixture{orders: newOrderRepo(), adjuster: &mockAdjuster{}}
	f.svc = NewService(menu(), resolver, f.orders, f.orders, f.adjuster, opts...)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func memberResolver() *mockResolver {
	return &mockResolver{byCustomer: map[string]*loyalty.Membership{"c1": goldMembership()}}
}

// One croissant and two lattes: 5.00 food, 7.00 beverage.
func breakfast() []Item {
	return []Item{
		{ProductID: "croissant", ProductName: "Croissant", Quantity: 1, Price: dec("5.00")},
		{ProductID: "latte", ProductName: "Latte", Quantity: 2, Price: dec("3.50")},
	}
}

// --- Tests ---

func TestCreateOrder_MemberDiscount(t *testing.T) {
	f := newFixture(memberResolver())

	o, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:  "c1",
		Type:        TypeDineIn,
		Items:       breakfast(),
		ClientTotal: dec("12.00"),
	})
	require.NoError(t, err)

	assert.True(t, dec("12.00").Equal(o.Subtotal))
	assert.True(t, dec("10.55").Equal(o.Total), "total %s", o.Total)
	require.NotNil(t, o.Discount)
	assert.Equal(t, "m1", o.Discount.MembershipID)
	assert.True(t, dec("0.75").Equal(o.Discount.FoodDiscountAmount))
	assert.True(t, dec("0.70").Equal(o.Discount.BeverageDiscountAmount))
	assert.True(t, dec("1.45").Equal(o.Discount.TotalDiscount))

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentUnpaid, o.PaymentStatus)
	assert.Empty(t, o.PaymentMethod)
	assert.Regexp(t, `^ORD-20250615-[0-9A-F]{8}$`, o.OrderNumber)
	assert.Equal(t, fixedNow, o.CreatedAt)
	assert.Equal(t, product.CategoryFood, o.Items[0].Category)
	assert.Equal(t, product.CategoryBeverage, o.Items[1].Category)

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, stored.OrderNumber)

	require.Len(t, f.adjuster.calls, 1)
	assert.Equal(t, []inventory.Line{
		{ProductID: "croissant", Quantity: 1},
		{ProductID: "latte", Quantity: 2},
	}, f.adjuster.calls[0])
}

func TestCreateOrder_NoDiscount(t *testing.T) {
	tests := []struct {
		name       string
		customerID string
		resolver   *mockResolver
	}{
		{name: "guest", customerID: "", resolver: memberResolver()},
		{name: "customer without membership", customerID: "c2", resolver: memberResolver()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.resolver)

			o, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
				CustomerID: tt.customerID,
				Type:       TypeToGo,
				Items:      breakfast(),
			})
			require.NoError(t, err)
			assert.Nil(t, o.Discount)
			assert.True(t, dec("12.00").Equal(o.Total))
		})
	}
}

func TestCreateOrder_ZeroBenefitsNoDiscount(t *testing.T) {
	m := goldMembership()
	m.Benefits = []loyalty.Benefit{{Type: loyalty.BenefitWifiDiscount, Value: dec("100")}}
	f := newFixture(&mockResolver{byCustomer: map[string]*loyalty.Membership{"c1": m}})

	o, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1", Type: TypeDineIn, Items: breakfast(),
	})
	require.NoError(t, err)
	assert.Nil(t, o.Discount)
	assert.True(t, dec("12.00").Equal(o.Total))
}

func TestCreateOrder_MissingProductCountsAsFood(t *testing.T) {
	f := newFixture(memberResolver())

	o, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1",
		Type:       TypeDelivery,
		Items: []Item{
			{ProductID: "retired-muffin", ProductName: "Muffin", Quantity: 1, Price: dec("4.00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, product.CategoryFood, o.Items[0].Category)
	require.NotNil(t, o.Discount)
	assert.True(t, dec("0.60").Equal(o.Discount.FoodDiscountAmount))
	assert.True(t, dec("3.40").Equal(o.Total))
}

func TestCreateOrder_ClientPriceTrusted(t *testing.T) {
	f := newFixture(&mockResolver{})

	o, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		Type:  TypeDineIn,
		Items: []Item{{ProductID: "latte", Quantity: 1, Price: dec("1.00")}},
	})
	require.NoError(t, err)
	assert.True(t, dec("1.00").Equal(o.Total))
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	f := newFixture(memberResolver())

	o, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1", Type: TypeDineIn,
	})
	require.NoError(t, err)
	assert.True(t, o.Total.IsZero())
	assert.Nil(t, o.Discount)
}

func TestCreateOrder_StockFailureKeepsOrder(t *testing.T) {
	f := newFixture(&mockResolver{})
	f.adjuster.err = errors.New("stock store down")

	o, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		Type: TypeDineIn, Items: breakfast(),
	})
	require.NoError(t, err)
	_, err = f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
}

func TestCreateOrder_Errors(t *testing.T) {
	t.Run("invalid type", func(t *testing.T) {
		f := newFixture(&mockResolver{})
		_, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{Type: "drive-thru"})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "order_type", vErr.Field)
	})
	t.Run("membership lookup failure", func(t *testing.T) {
		f := newFixture(&mockResolver{err: errors.New("db down")})
		_, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
			CustomerID: "c1", Type: TypeDineIn, Items: breakfast(),
		})
		require.Error(t, err)
		assert.Empty(t, f.adjuster.calls)
	})
	t.Run("persist failure", func(t *testing.T) {
		f := newFixture(&mockResolver{})
		f.orders.createErr = errors.New("insert failed")
		_, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
			Type: TypeDineIn, Items: breakfast(),
		})
		require.Error(t, err)
		assert.Empty(t, f.adjuster.calls)
	})
}

func TestPreviewDiscount(t *testing.T) {
	f := newFixture(memberResolver())

	p, err := f.svc.PreviewDiscount(context.Background(), PreviewRequest{
		CustomerID: "c1", Items: breakfast(),
	})
	require.NoError(t, err)
	assert.True(t, p.HasMembership)
	assert.True(t, dec("12.00").Equal(p.Subtotal))
	assert.True(t, dec("5.00").Equal(p.FoodTotal))
	assert.True(t, dec("7.00").Equal(p.BeverageTotal))
	assert.True(t, dec("1.45").Equal(p.TotalDiscount))
	assert.True(t, dec("10.55").Equal(p.FinalAmount))

	assert.Empty(t, f.orders.byID)
	assert.Empty(t, f.adjuster.calls)
}

func TestPreviewDiscount_MembershipWithoutCategoryBenefits(t *testing.T) {
	m := goldMembership()
	m.Benefits = nil
	f := newFixture(&mockResolver{byCustomer: map[string]*loyalty.Membership{"c1": m}})

	p, err := f.svc.PreviewDiscount(context.Background(), PreviewRequest{
		CustomerID: "c1", Items: breakfast(),
	})
	require.NoError(t, err)
	assert.True(t, p.HasMembership)
	assert.Nil(t, p.Discount)
	assert.True(t, p.TotalDiscount.IsZero())
	assert.True(t, dec("12.00").Equal(p.FinalAmount))
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		strict  bool
		wantErr bool
	}{
		{name: "pending to preparing", from: StatusPending, to: StatusPreparing, strict: true},
		{name: "preparing to ready", from: StatusPreparing, to: StatusReady, strict: true},
		{name: "same state", from: StatusReady, to: StatusReady, strict: true},
		{name: "completed is terminal", from: StatusCompleted, to: StatusPending, strict: true, wantErr: true},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusReady, strict: true, wantErr: true},
		{name: "backwards", from: StatusReady, to: StatusPreparing, strict: true, wantErr: true},
		{name: "permissive allows anything", from: StatusCompleted, to: StatusPending, strict: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(&mockResolver{}, WithStrictTransitions(tt.strict))
			f.orders.byID["o1"] = &Order{ID: "o1", Status: tt.from}

			err := f.svc.UpdateStatus(context.Background(), "o1", tt.to)
			if tt.wantErr {
				var tErr *TransitionError
				require.ErrorAs(t, err, &tErr)
				assert.Equal(t, tt.from, f.orders.byID["o1"].Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, f.orders.byID["o1"].Status)
		})
	}
}

func TestUpdateStatus_Errors(t *testing.T) {
	f := newFixture(&mockResolver{})

	var vErr *ValidationError
	require.ErrorAs(t, f.svc.UpdateStatus(context.Background(), "o1", "lost"), &vErr)
	require.ErrorIs(t, f.svc.UpdateStatus(context.Background(), "missing", StatusReady), ErrNotFound)
}

func TestUpdateLocation(t *testing.T) {
	f := newFixture(&mockResolver{})
	f.orders.byID["o1"] = &Order{ID: "o1", Type: TypeToGo}

	require.NoError(t, f.svc.UpdateLocation(context.Background(), "o1", Location{Lat: -6.2, Lng: 106.8}))
	assert.Equal(t, &Location{Lat: -6.2, Lng: 106.8}, f.orders.byID["o1"].Location)
	assert.Equal(t, fixedNow, f.orders.byID["o1"].UpdatedAt)
}

func TestPay(t *testing.T) {
	f := newFixture(memberResolver())
	o, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: "c1", Type: TypeDineIn, Items: breakfast(),
	})
	require.NoError(t, err)

	txn, err := f.svc.Pay(context.Background(), o.ID, MethodQR)
	require.NoError(t, err)
	assert.Equal(t, o.ID, txn.OrderID)
	assert.True(t, dec("10.55").Equal(txn.Amount))
	assert.Equal(t, MethodQR, txn.PaymentMethod)
	assert.Equal(t, o.OrderNumber, txn.Receipt.OrderNumber)
	assert.Len(t, txn.Receipt.Items, 2)
	assert.True(t, dec("10.55").Equal(txn.Receipt.Total))
	assert.Equal(t, fixedNow, txn.Receipt.Timestamp)

	paid, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, StatusCompleted, paid.Status)
	assert.Equal(t, MethodQR, paid.PaymentMethod)

	txns, err := f.svc.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txns, 1)

	_, err = f.svc.Pay(context.Background(), o.ID, MethodCash)
	require.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestPay_Rejected(t *testing.T) {
	t.Run("cancelled order", func(t *testing.T) {
		f := newFixture(&mockResolver{})
		f.orders.byID["o1"] = &Order{ID: "o1", Status: StatusCancelled, PaymentStatus: PaymentUnpaid}

		_, err := f.svc.Pay(context.Background(), "o1", MethodCash)
		var tErr *TransitionError
		require.ErrorAs(t, err, &tErr)
		assert.Empty(t, f.orders.txns)
	})
	t.Run("unknown method", func(t *testing.T) {
		f := newFixture(&mockResolver{})
		_, err := f.svc.Pay(context.Background(), "o1", "card")
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "payment_method", vErr.Field)
	})
	t.Run("permissive repays", func(t *testing.T) {
		f := newFixture(&mockResolver{}, WithStrictTransitions(false))
		f.orders.byID["o1"] = &Order{ID: "o1", Status: StatusCompleted, PaymentStatus: PaymentPaid}

		_, err := f.svc.Pay(context.Background(), "o1", MethodCash)
		require.NoError(t, err)
		assert.Len(t, f.orders.txns, 1)
	})
}

func TestList_CustomerFilter(t *testing.T) {
	f := newFixture(&mockResolver{})
	f.orders.byID["a"] = &Order{ID: "a", CustomerID: "c1", CreatedAt: fixedNow.Add(-time.Hour)}
	f.orders.byID["b"] = &Order{ID: "b", CustomerID: "c1", CreatedAt: fixedNow}
	f.orders.byID["c"] = &Order{ID: "c", CustomerID: "c2", CreatedAt: fixedNow}

	orders, err := f.svc.List(context.Background(), Filter{CustomerID: "c1"})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "b", orders[0].ID)
	assert.Equal(t, "a", orders[1].ID)
}
