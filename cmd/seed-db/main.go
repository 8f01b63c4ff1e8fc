// Command seed-db loads a catalog of users, menu, stock and loyalty
// programs into PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/handler"
	"github.com/HanzKay/KrasandApps-V1/internal/seed"
	"github.com/HanzKay/KrasandApps-V1/internal/storage/postgres"
)

type options struct {
	databaseURL string
	catalogFile string
	printTokens bool
	jwtSecret   string
	tokenTTL    time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.catalogFile, "catalog", "", "path to a catalog JSON file, .gz accepted (default: built-in catalog)")
	flag.BoolVar(&opts.printTokens, "print-tokens", false, "print development bearer tokens for the seeded users")
	flag.StringVar(&opts.jwtSecret, "jwt-secret", "", "HS256 secret for -print-tokens (or POS_AUTH_JWT_SECRET env)")
	flag.DurationVar(&opts.tokenTTL, "token-ttl", 24*time.Hour, "lifetime of printed tokens")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		lg.Fatal("Database URL is required: set -database-url or DATABASE_URL")
	}
	if opts.jwtSecret == "" {
		opts.jwtSecret = os.Getenv("POS_AUTH_JWT_SECRET")
	}
	if opts.printTokens && opts.jwtSecret == "" {
		lg.Fatal("JWT secret is required with -print-tokens: set -jwt-secret or POS_AUTH_JWT_SECRET")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, opts); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, opts options) error {
	catalog, err := loadCatalog(lg, opts.catalogFile)
	if err != nil {
		return err
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	var (
		users    = postgres.NewUserRepository(pool)
		programs = postgres.NewLoyaltyRepository(pool)
	)
	if _, err := seed.Apply(ctx, lg, catalog, seed.Target{
		Users:       users,
		Products:    postgres.NewProductRepository(pool),
		Ingredients: postgres.NewIngredientRepository(pool),
		Programs:    programs,
		Loyalty:     loyalty.NewService(programs, programs, users, true),
	}); err != nil {
		return errors.Wrap(err, "apply catalog")
	}

	if opts.printTokens {
		return printTokens(catalog, []byte(opts.jwtSecret), opts.tokenTTL)
	}
	return nil
}

func loadCatalog(lg *zap.Logger, path string) (*seed.Catalog, error) {
	if path == "" {
		lg.Info("Using built-in catalog")
		return seed.Default()
	}
	lg.Info("Reading catalog", zap.String("path", path))
	return seed.Open(path)
}

// printTokens writes one "user role token" line per seeded user to stdout.
func printTokens(c *seed.Catalog, secret []byte, ttl time.Duration) error {
	sec := handler.NewSecurityHandler(secret)
	users := c.UserIDs()
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		role := users[id]
		tok, err := sec.Issue(id, role, ttl)
		if err != nil {
			return errors.Wrapf(err, "issue token for %s", id)
		}
		fmt.Printf("%s\t%s\t%s\n", id, role, tok)
	}
	return nil
}
