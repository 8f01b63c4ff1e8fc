package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/inventory"
)

const (
	decrementStockSQL = `UPDATE ingredients SET current_stock = current_stock - $1 WHERE id = $2`

	listIngredientsSQL = `SELECT id, name, unit, current_stock, min_stock, cost_per_unit, created_at
		FROM ingredients ORDER BY name, id`

	upsertIngredientSQL = `INSERT INTO ingredients (id, name, unit, current_stock, min_stock, cost_per_unit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			unit = EXCLUDED.unit,
			current_stock = EXCLUDED.current_stock,
			min_stock = EXCLUDED.min_stock,
			cost_per_unit = EXCLUDED.cost_per_unit`
)

var (
	_ inventory.Repository = (*IngredientRepository)(nil)
	_ inventory.BatchStore = (*IngredientRepository)(nil)
)

// IngredientRepository implements inventory.Repository backed by PostgreSQL.
// Decrements are single-row atomic updates; an unknown ingredient id
// matches no row and is a no-op.
type IngredientRepository struct {
	pool *pgxpool.Pool
}

func NewIngredientRepository(pool *pgxpool.Pool) *IngredientRepository {
	return &IngredientRepository{pool: pool}
}

func (r *IngredientRepository) DecrementStock(ctx context.Context, d inventory.Decrement) error {
	if _, err := r.pool.Exec(ctx, decrementStockSQL, d.Amount, d.IngredientID); err != nil {
		return fmt.Errorf("decrementing stock of %q: %w", d.IngredientID, err)
	}
	return nil
}

// DecrementStockBatch sends all decrements in one round trip inside a
// transaction, so a failed batch leaves stock untouched.
func (r *IngredientRepository) DecrementStockBatch(ctx context.Context, ds []inventory.Decrement) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, d := range ds {
			b.Queue(decrementStockSQL, d.Amount, d.IngredientID)
		}
		return tx.SendBatch(ctx, b).Close()
	})
	if err != nil {
		return fmt.Errorf("decrementing stock batch of %d: %w", len(ds), err)
	}
	return nil
}

func (r *IngredientRepository) List(ctx context.Context) ([]inventory.Ingredient, error) {
	rows, err := r.pool.Query(ctx, listIngredientsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (inventory.Ingredient, error) {
		var i inventory.Ingredient
		err := row.Scan(&i.ID, &i.Name, &i.Unit, &i.CurrentStock, &i.MinStock, &i.CostPerUnit, &i.CreatedAt)
		return i, err
	})
}

func (r *IngredientRepository) Upsert(ctx context.Context, i *inventory.Ingredient) error {
	if _, err := r.pool.Exec(ctx, upsertIngredientSQL,
		i.ID, i.Name, i.Unit, i.CurrentStock, i.MinStock, i.CostPerUnit, i.CreatedAt,
	); err != nil {
		return fmt.Errorf("upserting ingredient %q: %w", i.ID, err)
	}
	return nil
}
