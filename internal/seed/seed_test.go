package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/HanzKay/KrasandApps-V1/db"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
	"github.com/HanzKay/KrasandApps-V1/internal/storage/memory"
)

type memoryTarget struct {
	Target
	users       *memory.UserRepository
	products    *memory.ProductRepository
	ingredients *memory.IngredientRepository
	loyalty     *memory.LoyaltyRepository
}

func newMemoryTarget() *memoryTarget {
	mt := &memoryTarget{
		users:       memory.NewUserRepository(),
		products:    memory.NewProductRepository(),
		ingredients: memory.NewIngredientRepository(),
		loyalty:     memory.NewLoyaltyRepository(),
	}
	mt.Target = Target{
		Users:       mt.users,
		Products:    mt.products,
		Ingredients: mt.ingredients,
		Programs:    mt.loyalty,
		Loyalty:     loyalty.NewService(mt.loyalty, mt.loyalty, mt.users, true),
	}
	return mt
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, c.Products)
	assert.Equal(t, auth.RoleAdmin, c.UserIDs()["admin"])
}

func TestApply_Idempotent(t *testing.T) {
	ctx := context.Background()
	c, err := Default()
	require.NoError(t, err)
	mt := newMemoryTarget()
	lg := zaptest.NewLogger(t)

	stats, err := Apply(ctx, lg, c, mt.Target)
	require.NoError(t, err)
	assert.Equal(t, len(c.Users), stats.Users)
	assert.Equal(t, len(c.Products), stats.Products)
	assert.Equal(t, len(c.Memberships), stats.Memberships)

	latte, err := mt.products.GetByID(ctx, "latte")
	require.NoError(t, err)
	assert.Equal(t, product.CategoryBeverage, latte.Category)
	assert.True(t, latte.Available)
	assert.True(t, decimal.RequireFromString("3.50").Equal(latte.Price))
	require.Len(t, latte.Recipe, 2)

	gold, err := mt.loyalty.GetProgram(ctx, "gold")
	require.NoError(t, err)
	assert.Equal(t, loyalty.DefaultColor, gold.Color)

	m, err := mt.loyalty.FindActive(ctx, "customer")
	require.NoError(t, err)
	assert.Equal(t, "gold", m.ProgramID)
	require.NotNil(t, m.EndDate)

	stats, err = Apply(ctx, lg, c, mt.Target)
	require.NoError(t, err)
	assert.Zero(t, stats.Memberships)

	all, err := mt.loyalty.ListMemberships(ctx, loyalty.MembershipFilter{})
	require.NoError(t, err)
	assert.Len(t, all, len(c.Memberships))
}

func TestApply_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		catalog string
		wantErr string
	}{
		{name: "role", catalog: `{"users":[{"id":"x","role":"owner"}]}`, wantErr: "unknown role"},
		{name: "category", catalog: `{"products":[{"id":"x","category":"dessert","price":1}]}`, wantErr: "unknown category"},
		{
			name:    "program",
			catalog: `{"programs":[{"id":"x","name":"X","duration_type":"weeks"}]}`,
			wantErr: "duration_type",
		},
		{name: "membership", catalog: `{"memberships":[{"customer_id":"c","program_id":"missing"}]}`, wantErr: "program not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(strings.NewReader(tt.catalog))
			require.NoError(t, err)
			_, err = Apply(context.Background(), zaptest.NewLogger(t), c, newMemoryTarget().Target)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"coupons":[]}`))
	require.Error(t, err)
}

func TestOpen_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := pgzip.NewWriter(f)
	_, err = zw.Write(db.Catalog)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	c, err := Open(path)
	require.NoError(t, err)
	want, err := Default()
	require.NoError(t, err)
	assert.Equal(t, want, c)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
