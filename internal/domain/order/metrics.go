package order

import (
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics are the order pipeline counters.
type Metrics struct {
	created       metric.Int64Counter
	discounted    metric.Int64Counter
	fallbacks     metric.Int64Counter
	stockFailures metric.Int64Counter
}

// NewMetrics registers the order pipeline counters on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("github.com/HanzKay/KrasandApps-V1/internal/domain/order")

	var (
		m   Metrics
		err error
	)
	if m.created, err = meter.Int64Counter("pos.orders.created",
		metric.WithDescription("Orders persisted"),
	); err != nil {
		return nil, errors.Wrap(err, "orders created counter")
	}
	if m.discounted, err = meter.Int64Counter("pos.orders.discounted",
		metric.WithDescription("Orders that received a membership discount"),
	); err != nil {
		return nil, errors.Wrap(err, "orders discounted counter")
	}
	if m.fallbacks, err = meter.Int64Counter("pos.orders.product_fallbacks",
		metric.WithDescription("Order lines whose product was not found and defaulted to food"),
	); err != nil {
		return nil, errors.Wrap(err, "product fallbacks counter")
	}
	if m.stockFailures, err = meter.Int64Counter("pos.stock.adjust_failures",
		metric.WithDescription("Orders whose ingredient stock adjustment failed"),
	); err != nil {
		return nil, errors.Wrap(err, "stock failures counter")
	}
	return &m, nil
}

func noopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}
