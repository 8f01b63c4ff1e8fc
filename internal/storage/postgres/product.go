package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

const (
	productColumns = `id, name, description, category, price, image_url, recipe, available, created_at`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products WHERE ($1::text = '' OR category = $1) ORDER BY created_at, id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			image_url = EXCLUDED.image_url,
			recipe = EXCLUDED.recipe,
			available = EXCLUDED.available`
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ product.Writer     = (*ProductRepository)(nil)
)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns catalog products, optionally narrowed to one category.
func (r *ProductRepository) List(ctx context.Context, filter product.Filter) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, string(filter.Category))
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Upsert inserts p or replaces the stored product with the same id.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	recipe, err := json.Marshal(p.Recipe)
	if err != nil {
		return fmt.Errorf("marshaling recipe of %q: %w", p.ID, err)
	}
	if _, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Description, string(p.Category), p.Price, p.ImageURL, recipe, p.Available, p.CreatedAt,
	); err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p        product.Product
		category string
		recipe   []byte
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &category, &p.Price,
		&p.ImageURL, &recipe, &p.Available, &p.CreatedAt,
	); err != nil {
		return p, err
	}
	p.Category = product.Category(category)
	if err := json.Unmarshal(recipe, &p.Recipe); err != nil {
		return p, fmt.Errorf("unmarshaling recipe of %q: %w", p.ID, err)
	}
	return p, nil
}
