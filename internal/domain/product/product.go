package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Category groups products for discount purposes.
type Category string

const (
	CategoryFood     Category = "food"
	CategoryBeverage Category = "beverage"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryFood || c == CategoryBeverage
}

// RecipeLine is the amount of one ingredient consumed by a single unit of a
// product.
type RecipeLine struct {
	IngredientID string          `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// Product represents a menu item.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    Category
	Price       decimal.Decimal
	ImageURL    string
	Recipe      []RecipeLine
	Available   bool
	CreatedAt   time.Time
}

// Filter narrows a product listing. Zero value matches everything.
type Filter struct {
	Category Category
}

// Match reports whether p passes the filter.
func (f Filter) Match(p Product) bool {
	return f.Category == "" || p.Category == f.Category
}

// Repository defines read operations for the menu.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// Writer upserts menu items. Used by the seeding and CMS paths.
type Writer interface {
	Upsert(ctx context.Context, p *Product) error
}
