package memory

import (
	"context"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ product.Writer     = (*ProductRepository)(nil)
)

// ProductRepository keeps the catalog in memory.
type ProductRepository struct {
	t *table[product.Product]
}

// NewProductRepository returns an empty ProductRepository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{t: newTable[product.Product]()}
}

// List returns products matching filter in insertion order.
func (r *ProductRepository) List(_ context.Context, filter product.Filter) ([]product.Product, error) {
	return r.t.list(filter.Match), nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := r.t.get(id)
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// GetByIDs returns the known products among ids. Unknown ids are omitted.
func (r *ProductRepository) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.t.get(id); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Upsert stores or replaces p.
func (r *ProductRepository) Upsert(_ context.Context, p *product.Product) error {
	r.t.set(p.ID, *p)
	return nil
}
