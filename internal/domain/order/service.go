package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/inventory"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// MembershipResolver finds the membership that applies to an order.
type MembershipResolver interface {
	ResolveActive(ctx context.Context, customerID string) (*loyalty.Membership, error)
}

// StockAdjuster consumes ingredients for fulfilled order lines.
type StockAdjuster interface {
	Adjust(ctx context.Context, lines []inventory.Line, products map[string]product.Product) error
}

// CreateOrderRequest holds the input for placing an order.
type CreateOrderRequest struct {
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	Type          Type
	TableID       string
	TableNumber   *int
	// Items carry client-submitted prices. Category is resolved server-side.
	Items []Item
	// ClientTotal is accepted for compatibility and ignored.
	ClientTotal decimal.Decimal
	Location    *Location
	Notes       string
}

// PreviewRequest holds the input for a discount preview.
type PreviewRequest struct {
	CustomerID string
	Items      []Item
}

// Preview is the pricing of a prospective order.
type Preview struct {
	Subtotal      decimal.Decimal
	FoodTotal     decimal.Decimal
	BeverageTotal decimal.Decimal
	Discount      *loyalty.DiscountInfo
	TotalDiscount decimal.Decimal
	FinalAmount   decimal.Decimal
	HasMembership bool
}

// Option configures a Service.
type Option func(*Service)

// WithStrictTransitions controls whether illegal status changes and double
// payments are rejected. Enabled by default.
func WithStrictTransitions(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// WithMetrics sets the pipeline counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracerProvider sets the tracer provider for pipeline spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("github.com/HanzKay/KrasandApps-V1/internal/domain/order") }
}

// WithNumberGenerator replaces the order number generator.
func WithNumberGenerator(g *NumberGenerator) Option {
	return func(s *Service) { s.numbers = g }
}

// Service encapsulates order placement and the order workflow.
type Service struct {
	products     product.Repository
	memberships  MembershipResolver
	orders       Repository
	transactions TransactionRepository
	stock        StockAdjuster

	numbers *NumberGenerator
	strict  bool
	metrics *Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	memberships MembershipResolver,
	orders Repository,
	transactions TransactionRepository,
	stock StockAdjuster,
	opts ...Option,
) *Service {
	s := &Service{
		products:     products,
		memberships:  memberships,
		orders:       orders,
		transactions: transactions,
		stock:        stock,
		numbers:      NewNumberGenerator(0),
		strict:       true,
		metrics:      noopMetrics(),
		tracer:       tracenoop.NewTracerProvider().Tracer(""),
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// pricing is the shared result of categorizing lines and applying the
// membership discount.
type pricing struct {
	items      []Item
	totals     loyalty.Totals
	subtotal   decimal.Decimal
	membership *loyalty.Membership
	discount   *loyalty.DiscountInfo
	total      decimal.Decimal
	products   map[string]product.Product
}

// price fetches products and the customer's membership concurrently, then
// categorizes lines and computes the discount.
func (s *Service) price(ctx context.Context, customerID string, items []Item) (*pricing, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	var (
		fetched    []product.Product
		membership *loyalty.Membership
	)
	g, gctx := errgroup.WithContext(ctx)
	if len(ids) > 0 {
		g.Go(func() error {
			var err error
			if fetched, err = s.products.GetByIDs(gctx, ids); err != nil {
				return fmt.Errorf("get products: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		var err error
		if membership, err = s.memberships.ResolveActive(gctx, customerID); err != nil {
			return fmt.Errorf("resolve membership: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	p := &pricing{
		items:      make([]Item, len(items)),
		membership: membership,
		products:   productMap,
	}

	lg := zctx.From(ctx)
	for i, it := range items {
		// Missing products count as food rather than failing the order.
		it.Category = product.CategoryFood
		if prod, ok := productMap[it.ProductID]; ok {
			it.Category = prod.Category
		} else {
			lg.Warn("Product not found, defaulting to food",
				zap.String("product_id", it.ProductID),
			)
			s.metrics.fallbacks.Add(ctx, 1)
		}

		// The client-submitted price is trusted; it is not re-derived from
		// the stored product.
		line := it.Total()
		p.totals.Add(it.Category, line)
		p.subtotal = p.subtotal.Add(line)
		p.items[i] = it
	}

	p.discount = loyalty.ComputeDiscount(membership, p.totals)
	if p.discount != nil {
		p.total = p.subtotal.Sub(p.discount.TotalDiscount).Round(2)
	} else {
		p.total = p.subtotal.Round(2)
	}
	return p, nil
}

// PreviewDiscount prices a prospective order without persisting it or
// touching stock.
func (s *Service) PreviewDiscount(ctx context.Context, req PreviewRequest) (*Preview, error) {
	p, err := s.price(ctx, req.CustomerID, req.Items)
	if err != nil {
		return nil, err
	}
	out := &Preview{
		Subtotal:      p.subtotal,
		FoodTotal:     p.totals.Food,
		BeverageTotal: p.totals.Beverage,
		Discount:      p.discount,
		FinalAmount:   p.total,
		HasMembership: p.membership != nil,
	}
	if p.discount != nil {
		out.TotalDiscount = p.discount.TotalDiscount
	}
	return out, nil
}

// CreateOrder prices the order, persists it as pending and unpaid, then
// consumes ingredient stock. A stock adjustment failure is logged and
// counted but does not fail or roll back the order.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if !req.Type.Valid() {
		return nil, &ValidationError{Field: "order_type", Reason: fmt.Sprintf("unknown value %q", req.Type)}
	}

	ctx, span := s.tracer.Start(ctx, "order.Create")
	defer span.End()

	p, err := s.price(ctx, req.CustomerID, req.Items)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.now().UTC()
	o := &Order{
		ID:            uuid.New().String(),
		OrderNumber:   s.numbers.Next(now),
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Type:          req.Type,
		TableID:       req.TableID,
		TableNumber:   req.TableNumber,
		Items:         p.items,
		Subtotal:      p.subtotal,
		Discount:      p.discount,
		Total:         p.total,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Location:      req.Location,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	lg := zctx.From(ctx).With(zap.String("order_number", o.OrderNumber))
	if !req.ClientTotal.IsZero() && !req.ClientTotal.Equal(o.Total) {
		lg.Debug("Client total ignored",
			zap.String("client_total", req.ClientTotal.String()),
			zap.String("total", o.Total.String()),
		)
	}

	if err := s.orders.Create(ctx, o); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.metrics.created.Add(ctx, 1, metric.WithAttributes(attribute.String("order_type", string(o.Type))))
	if o.Discount != nil {
		s.metrics.discounted.Add(ctx, 1)
	}
	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.Int("order.items", len(o.Items)),
		attribute.Bool("order.discounted", o.Discount != nil),
	)

	lines := make([]inventory.Line, len(o.Items))
	for i, it := range o.Items {
		lines[i] = inventory.Line{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	// The order is already stored; stock is consumed even if the client
	// goes away.
	if err := s.stock.Adjust(context.WithoutCancel(ctx), lines, p.products); err != nil {
		lg.Error("Stock adjustment failed", zap.Error(err))
		s.metrics.stockFailures.Add(ctx, 1)
	}

	lg.Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("total", o.Total.String()),
		zap.Bool("discounted", o.Discount != nil),
	)
	return o, nil
}

// Get returns an order by id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// List returns orders matching filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Order, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order through the kitchen workflow.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", status)}
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.Status == status {
		return nil
	}
	if s.strict && !o.Status.CanTransition(status) {
		return &TransitionError{From: o.Status, To: status}
	}
	return s.orders.UpdateStatus(ctx, id, status, s.now().UTC())
}

// UpdateLocation records the customer's shared location.
func (s *Service) UpdateLocation(ctx context.Context, id string, loc Location) error {
	return s.orders.UpdateLocation(ctx, id, loc, s.now().UTC())
}

// ListTransactions returns payment records, newest first.
func (s *Service) ListTransactions(ctx context.Context) ([]Transaction, error) {
	txns, err := s.transactions.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}
