package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a stocked raw material consumed by product recipes.
// CurrentStock may go negative when orders outrun deliveries.
type Ingredient struct {
	ID           string
	Name         string
	Unit         string
	CurrentStock decimal.Decimal
	MinStock     decimal.Decimal
	CostPerUnit  decimal.Decimal
	CreatedAt    time.Time
}

// Low reports whether stock is at or under the reorder threshold.
func (i Ingredient) Low() bool {
	return i.CurrentStock.LessThanOrEqual(i.MinStock)
}

// Decrement lowers one ingredient's stock by Amount.
type Decrement struct {
	IngredientID string
	Amount       decimal.Decimal
}

// Store applies stock decrements one at a time. Decrementing an unknown
// ingredient is a no-op, not an error.
type Store interface {
	DecrementStock(ctx context.Context, d Decrement) error
}

// BatchStore applies a set of decrements in a single write.
type BatchStore interface {
	Store
	DecrementStockBatch(ctx context.Context, ds []Decrement) error
}

// Repository reads and writes ingredients.
type Repository interface {
	Store
	List(ctx context.Context) ([]Ingredient, error)
	Upsert(ctx context.Context, i *Ingredient) error
}
