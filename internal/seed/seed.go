// Package seed loads a JSON catalog of users, menu, stock and loyalty
// programs into any storage driver.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/HanzKay/KrasandApps-V1/db"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/inventory"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type ingredientJSON struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
}

type productJSON struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Price       decimal.Decimal      `json:"price"`
	ImageURL    string               `json:"image_url"`
	Recipe      []product.RecipeLine `json:"recipe"`
	Unavailable bool                 `json:"unavailable"`
}

type programJSON struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	DurationType  string            `json:"duration_type"`
	DurationValue int               `json:"duration_value"`
	Benefits      []loyalty.Benefit `json:"benefits"`
	IsGroup       bool              `json:"is_group"`
	Color         string            `json:"color"`
}

type membershipJSON struct {
	CustomerID string `json:"customer_id"`
	ProgramID  string `json:"program_id"`
}

// Catalog is the content of a seed file.
type Catalog struct {
	Users       []userJSON       `json:"users"`
	Ingredients []ingredientJSON `json:"ingredients"`
	Products    []productJSON    `json:"products"`
	Programs    []programJSON    `json:"programs"`
	Memberships []membershipJSON `json:"memberships"`
}

// UserIDs returns the seeded users with their roles.
func (c *Catalog) UserIDs() map[string]auth.Role {
	out := make(map[string]auth.Role, len(c.Users))
	for _, u := range c.Users {
		out[u.ID] = auth.Role(u.Role)
	}
	return out
}

// Parse decodes a catalog.
func Parse(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return &c, nil
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(db.Catalog))
}

// Open reads a catalog file. Files ending in .gz are decompressed.
func Open(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}
	return Parse(r)
}

// IngredientWriter upserts ingredients.
type IngredientWriter interface {
	Upsert(ctx context.Context, i *inventory.Ingredient) error
}

// Target is where a catalog is written.
type Target struct {
	Users       auth.Writer
	Products    product.Writer
	Ingredients IngredientWriter
	Programs    loyalty.ProgramRepository
	Loyalty     *loyalty.Service
}

// Stats counts what Apply wrote.
type Stats struct {
	Users       int
	Ingredients int
	Products    int
	Programs    int
	Memberships int
}

// Apply upserts every catalog entry into t. It can be re-run: programs keep
// their ids and existing memberships are left alone.
func Apply(ctx context.Context, lg *zap.Logger, c *Catalog, t Target) (Stats, error) {
	var stats Stats
	now := time.Now().UTC()

	for _, u := range c.Users {
		user := auth.User{ID: u.ID, Email: u.Email, Name: u.Name, Role: auth.Role(u.Role), CreatedAt: now}
		if !user.Role.Valid() {
			return stats, errors.Errorf("user %s: unknown role %q", u.ID, u.Role)
		}
		if err := t.Users.Upsert(ctx, &user); err != nil {
			return stats, errors.Wrapf(err, "upsert user %s", u.ID)
		}
		stats.Users++
	}

	for _, in := range c.Ingredients {
		if err := t.Ingredients.Upsert(ctx, &inventory.Ingredient{
			ID:           in.ID,
			Name:         in.Name,
			Unit:         in.Unit,
			CurrentStock: in.CurrentStock,
			MinStock:     in.MinStock,
			CostPerUnit:  in.CostPerUnit,
			CreatedAt:    now,
		}); err != nil {
			return stats, errors.Wrapf(err, "upsert ingredient %s", in.ID)
		}
		stats.Ingredients++
	}

	for _, p := range c.Products {
		prod := product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Category:    product.Category(p.Category),
			Price:       p.Price,
			ImageURL:    p.ImageURL,
			Recipe:      p.Recipe,
			Available:   !p.Unavailable,
			CreatedAt:   now,
		}
		if !prod.Category.Valid() {
			return stats, errors.Errorf("product %s: unknown category %q", p.ID, p.Category)
		}
		if err := t.Products.Upsert(ctx, &prod); err != nil {
			return stats, errors.Wrapf(err, "upsert product %s", p.ID)
		}
		lg.Debug("Upserted product", zap.String("id", p.ID), zap.String("name", p.Name))
		stats.Products++
	}

	for _, p := range c.Programs {
		if err := upsertProgram(ctx, t, p, now); err != nil {
			return stats, errors.Wrapf(err, "upsert program %s", p.ID)
		}
		stats.Programs++
	}

	byProgram := make(map[string][]string)
	var programIDs []string
	for _, m := range c.Memberships {
		if _, ok := byProgram[m.ProgramID]; !ok {
			programIDs = append(programIDs, m.ProgramID)
		}
		byProgram[m.ProgramID] = append(byProgram[m.ProgramID], m.CustomerID)
	}
	for _, programID := range programIDs {
		created, err := t.Loyalty.AssignMemberships(ctx, programID, byProgram[programID])
		if err != nil {
			return stats, errors.Wrapf(err, "assign memberships of %s", programID)
		}
		stats.Memberships += len(created)
	}

	lg.Info("Catalog applied",
		zap.Int("users", stats.Users),
		zap.Int("ingredients", stats.Ingredients),
		zap.Int("products", stats.Products),
		zap.Int("programs", stats.Programs),
		zap.Int("memberships", stats.Memberships),
	)
	return stats, nil
}

func upsertProgram(ctx context.Context, t Target, p programJSON, now time.Time) error {
	prog := loyalty.Program{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		DurationType:  loyalty.DurationType(p.DurationType),
		DurationValue: p.DurationValue,
		Benefits:      p.Benefits,
		IsGroup:       p.IsGroup,
		Color:         p.Color,
		CreatedAt:     now,
	}
	if prog.Color == "" {
		prog.Color = loyalty.DefaultColor
	}
	if err := prog.Validate(); err != nil {
		return err
	}

	_, err := t.Programs.GetProgram(ctx, p.ID)
	switch {
	case errors.Is(err, loyalty.ErrProgramNotFound):
		return t.Programs.CreateProgram(ctx, &prog)
	case err != nil:
		return err
	}
	// Existing programs go through the service so active memberships pick
	// up changed benefits.
	_, err = t.Loyalty.UpdateProgram(ctx, p.ID, prog)
	return err
}
