package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/inventory"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/order"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
	"github.com/HanzKay/KrasandApps-V1/internal/seed"
	"github.com/HanzKay/KrasandApps-V1/internal/storage/memory"
	"github.com/HanzKay/KrasandApps-V1/internal/storage/postgres"
	"github.com/HanzKay/KrasandApps-V1/pkg/health"
)

type loyaltyStore interface {
	loyalty.ProgramRepository
	loyalty.MembershipRepository
}

type orderStore interface {
	order.Repository
	order.TransactionRepository
}

type ingredientStore interface {
	inventory.Store
	List(ctx context.Context) ([]inventory.Ingredient, error)
}

// stores is the set of repositories backing one driver.
type stores struct {
	products    product.Repository
	users       auth.Repository
	loyalty     loyaltyStore
	ingredients ingredientStore
	orders      orderStore

	// pinger is nil for drivers without a remote dependency.
	pinger health.Pinger
	// seed is set when the default catalog should be loaded at startup.
	// Its Loyalty service is filled in by the caller.
	seed  *seed.Target
	close func()
}

// openStores connects the configured driver. PostgreSQL schemas are
// migrated before use.
func openStores(ctx context.Context, lg *zap.Logger, cfg StorageConfig) (*stores, error) {
	switch cfg.Driver {
	case DriverMemory:
		lg.Warn("Using in-memory storage, data is lost on restart")
		var (
			products    = memory.NewProductRepository()
			users       = memory.NewUserRepository()
			loyaltyRepo = memory.NewLoyaltyRepository()
			ingredients = memory.NewIngredientRepository()
		)
		s := &stores{
			products:    products,
			users:       users,
			loyalty:     loyaltyRepo,
			ingredients: ingredients,
			orders:      memory.NewOrderRepository(),
			close:       func() {},
		}
		if cfg.SeedMemory {
			s.seed = &seed.Target{
				Users:       users,
				Products:    products,
				Ingredients: ingredients,
				Programs:    loyaltyRepo,
			}
		}
		return s, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		return &stores{
			products:    postgres.NewProductRepository(pool),
			users:       postgres.NewUserRepository(pool),
			loyalty:     postgres.NewLoyaltyRepository(pool),
			ingredients: postgres.NewIngredientRepository(pool),
			orders:      postgres.NewOrderRepository(pool),
			pinger:      pool,
			close:       pool.Close,
		}, nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
