package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// --- Mock implementations ---

// seqStore applies decrements one at a time and can fail the first N writes.
type seqStore struct {
	mu       sync.Mutex
	stock    map[string]decimal.Decimal
	failN    int
	attempts int
}

func newSeqStore(stock map[string]string) *seqStore {
	s := &seqStore{stock: make(map[string]decimal.Decimal)}
	for id, v := range stock {
		s.stock[id] = decimal.RequireFromString(v)
	}
	return s
}

func (s *seqStore) DecrementStock(_ context.Context, d Decrement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failN > 0 {
		s.failN--
		return errors.New("transient")
	}
	if cur, ok := s.stock[d.IngredientID]; ok {
		s.stock[d.IngredientID] = cur.Sub(d.Amount)
	}
	return nil
}

// batchStore records batch calls on top of seqStore.
type batchStore struct {
	*seqStore
	batches  [][]Decrement
	batchErr error
}

func (b *batchStore) DecrementStockBatch(ctx context.Context, ds []Decrement) error {
	b.batches = append(b.batches, ds)
	if b.batchErr != nil {
		return b.batchErr
	}
	for _, d := range ds {
		_ = b.seqStore.DecrementStock(ctx, d)
	}
	return nil
}

// --- Helpers ---

var fastRetry = RetryConfig{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

func latteAndCroissant() map[string]product.Product {
	return map[string]product.Product{
		"latte": {
			ID: "latte", Category: product.CategoryBeverage,
			Recipe: []product.RecipeLine{
				{IngredientID: "espresso", Quantity: decimal.RequireFromString("18")},
				{IngredientID: "milk", Quantity: decimal.RequireFromString("0.2")},
			},
		},
		"croissant": {
			ID: "croissant", Category: product.CategoryFood,
			Recipe: []product.RecipeLine{
				{IngredientID: "butter", Quantity: decimal.RequireFromString("0.05")},
				{IngredientID: "milk", Quantity: decimal.RequireFromString("0.01")},
			},
		},
		"water": {ID: "water", Category: product.CategoryBeverage},
	}
}

func assertStock(t *testing.T, s *seqStore, id, want string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(s.stock[id]),
		"%s: want %s, got %s", id, want, s.stock[id])
}

// --- Tests ---

func TestPlan(t *testing.T) {
	ds := Plan([]Line{
		{ProductID: "latte", Quantity: 2},
		{ProductID: "croissant", Quantity: 1},
		{ProductID: "water", Quantity: 3},
		{ProductID: "unknown", Quantity: 1},
	}, latteAndCroissant())

	require.Len(t, ds, 3)
	assert.Equal(t, "espresso", ds[0].IngredientID)
	assert.True(t, decimal.RequireFromString("36").Equal(ds[0].Amount))
	assert.Equal(t, "milk", ds[1].IngredientID)
	assert.True(t, decimal.RequireFromString("0.41").Equal(ds[1].Amount))
	assert.Equal(t, "butter", ds[2].IngredientID)
	assert.True(t, decimal.RequireFromString("0.05").Equal(ds[2].Amount))
}

func TestPlan_Empty(t *testing.T) {
	assert.Empty(t, Plan(nil, latteAndCroissant()))
	assert.Empty(t, Plan([]Line{{ProductID: "water", Quantity: 1}}, latteAndCroissant()))
}

func TestAdjust_SequentialAndBatchAgree(t *testing.T) {
	stock := map[string]string{"espresso": "1000", "milk": "10", "butter": "1"}
	lines := []Line{{ProductID: "latte", Quantity: 2}, {ProductID: "croissant", Quantity: 1}}

	seq := newSeqStore(stock)
	require.NoError(t, NewAdjuster(seq, fastRetry).Adjust(context.Background(), lines, latteAndCroissant()))

	batch := &batchStore{seqStore: newSeqStore(stock)}
	require.NoError(t, NewAdjuster(batch, fastRetry).Adjust(context.Background(), lines, latteAndCroissant()))

	require.Len(t, batch.batches, 1)
	for id := range stock {
		assert.True(t, seq.stock[id].Equal(batch.stock[id]), "%s differs", id)
	}
	assertStock(t, seq, "espresso", "964")
	assertStock(t, seq, "milk", "9.59")
	assertStock(t, seq, "butter", "0.95")
}

func TestAdjust_GoesNegative(t *testing.T) {
	s := newSeqStore(map[string]string{"espresso": "10", "milk": "0"})

	err := NewAdjuster(s, fastRetry).Adjust(context.Background(),
		[]Line{{ProductID: "latte", Quantity: 1}}, latteAndCroissant())
	require.NoError(t, err)
	assertStock(t, s, "espresso", "-8")
	assertStock(t, s, "milk", "-0.2")
}

func TestAdjust_UnknownIngredientIsNoop(t *testing.T) {
	s := newSeqStore(map[string]string{"espresso": "100"})

	err := NewAdjuster(s, fastRetry).Adjust(context.Background(),
		[]Line{{ProductID: "latte", Quantity: 1}}, latteAndCroissant())
	require.NoError(t, err)
	assertStock(t, s, "espresso", "82")
	assert.NotContains(t, s.stock, "milk")
}

func TestAdjust_RetriesTransientFailure(t *testing.T) {
	s := newSeqStore(map[string]string{"espresso": "100", "milk": "1"})
	s.failN = 2

	err := NewAdjuster(s, fastRetry).Adjust(context.Background(),
		[]Line{{ProductID: "latte", Quantity: 1}}, latteAndCroissant())
	require.NoError(t, err)
	assertStock(t, s, "espresso", "82")
	assertStock(t, s, "milk", "0.8")
	// Two failed attempts, then one write per ingredient.
	assert.Equal(t, 4, s.attempts)
}

func TestAdjust_GivesUp(t *testing.T) {
	s := newSeqStore(map[string]string{"espresso": "100", "milk": "1"})
	s.failN = 3

	err := NewAdjuster(s, fastRetry).Adjust(context.Background(),
		[]Line{{ProductID: "latte", Quantity: 1}}, latteAndCroissant())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "espresso")
	// Espresso exhausted its tries; milk still applied.
	assertStock(t, s, "espresso", "100")
	assertStock(t, s, "milk", "0.8")
}

func TestAdjust_BatchRetriedAsUnit(t *testing.T) {
	b := &batchStore{seqStore: newSeqStore(map[string]string{"espresso": "100"}), batchErr: errors.New("conn reset")}

	err := NewAdjuster(b, fastRetry).Adjust(context.Background(),
		[]Line{{ProductID: "latte", Quantity: 1}}, latteAndCroissant())
	require.Error(t, err)
	assert.Len(t, b.batches, 3)
	assertStock(t, b.seqStore, "espresso", "100")
}

func TestAdjust_NothingToDo(t *testing.T) {
	b := &batchStore{seqStore: newSeqStore(nil)}

	err := NewAdjuster(b, RetryConfig{}).Adjust(context.Background(),
		[]Line{{ProductID: "water", Quantity: 2}}, latteAndCroissant())
	require.NoError(t, err)
	assert.Empty(t, b.batches)
}
