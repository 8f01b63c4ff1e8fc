package memory

import (
	"context"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/inventory"
)

var _ inventory.Repository = (*IngredientRepository)(nil)

// IngredientRepository keeps ingredient stock in memory. It applies
// decrements one at a time; it does not implement inventory.BatchStore.
type IngredientRepository struct {
	t *table[inventory.Ingredient]
}

func NewIngredientRepository() *IngredientRepository {
	return &IngredientRepository{t: newTable[inventory.Ingredient]()}
}

// DecrementStock subtracts d.Amount under the table lock. Unknown
// ingredients are ignored and stock may go negative.
func (r *IngredientRepository) DecrementStock(_ context.Context, d inventory.Decrement) error {
	r.t.update(d.IngredientID, func(i *inventory.Ingredient) {
		i.CurrentStock = i.CurrentStock.Sub(d.Amount)
	})
	return nil
}

func (r *IngredientRepository) List(_ context.Context) ([]inventory.Ingredient, error) {
	return r.t.list(nil), nil
}

func (r *IngredientRepository) Upsert(_ context.Context, i *inventory.Ingredient) error {
	r.t.set(i.ID, *i)
	return nil
}
