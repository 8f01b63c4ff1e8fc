package inventory

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// Line is the part of an order line the adjuster needs.
type Line struct {
	ProductID string
	Quantity  int
}

// RetryConfig controls how stock writes are retried.
type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetry is used when NewAdjuster receives a zero RetryConfig.
var DefaultRetry = RetryConfig{
	MaxTries:        3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
}

// Adjuster turns fulfilled order lines into ingredient decrements.
type Adjuster struct {
	store Store
	retry RetryConfig
}

// NewAdjuster creates an Adjuster writing to store.
func NewAdjuster(store Store, retry RetryConfig) *Adjuster {
	if retry.MaxTries == 0 {
		retry = DefaultRetry
	}
	return &Adjuster{store: store, retry: retry}
}

// Plan computes the decrements for lines. Lines whose product is missing or
// has no recipe contribute nothing. Decrements of the same ingredient are
// merged and returned in first-seen order.
func Plan(lines []Line, products map[string]product.Product) []Decrement {
	var (
		out   []Decrement
		index = make(map[string]int)
	)
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		qty := decimal.NewFromInt(int64(l.Quantity))
		for _, r := range p.Recipe {
			amount := r.Quantity.Mul(qty)
			if i, ok := index[r.IngredientID]; ok {
				out[i].Amount = out[i].Amount.Add(amount)
				continue
			}
			index[r.IngredientID] = len(out)
			out = append(out, Decrement{IngredientID: r.IngredientID, Amount: amount})
		}
	}
	return out
}

// Adjust decrements stock for lines. Stock is not bounded at zero.
//
// A BatchStore gets a single write, retried as a unit. Other stores get one
// write per ingredient, each retried on its own so completed writes are not
// repeated. The returned error lists the writes that never succeeded.
func (a *Adjuster) Adjust(ctx context.Context, lines []Line, products map[string]product.Product) error {
	ds := Plan(lines, products)
	if len(ds) == 0 {
		return nil
	}

	if bs, ok := a.store.(BatchStore); ok {
		return a.withRetry(ctx, func() error {
			return bs.DecrementStockBatch(ctx, ds)
		})
	}

	var errs error
	for _, d := range ds {
		if err := a.withRetry(ctx, func() error {
			return a.store.DecrementStock(ctx, d)
		}); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "decrement %s", d.IngredientID))
		}
	}
	return errs
}

func (a *Adjuster) withRetry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.retry.InitialInterval
	if a.retry.MaxInterval > 0 {
		b.MaxInterval = a.retry.MaxInterval
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(a.retry.MaxTries),
	)
	return err
}
