// Package handler implements the POS REST API on top of the domain services.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/inventory"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/order"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// IngredientLister reads the stock levels shown to storage and kitchen
// staff.
type IngredientLister interface {
	List(ctx context.Context) ([]inventory.Ingredient, error)
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to product image paths. When empty, paths
	// are returned as stored.
	ImageBaseURL string
}

// Handler serves the API, delegating business logic to the order and
// loyalty services.
type Handler struct {
	products     product.Repository
	orders       *order.Service
	loyalty      *loyalty.Service
	ingredients  IngredientLister
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	products product.Repository,
	orders *order.Service,
	loyaltySvc *loyalty.Service,
	ingredients IngredientLister,
) *Handler {
	return &Handler{
		products:     products,
		orders:       orders,
		loyalty:      loyaltySvc,
		ingredients:  ingredients,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes mounts the API under r. Order placement, previews, lookups and
// location sharing are public so guests can order from a table QR code;
// everything else requires a bearer token.
func (h *Handler) Routes(r chi.Router, sec *SecurityHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Post("/orders", h.CreateOrder)
		r.Post("/orders/preview-discount", h.PreviewDiscount)
		r.Get("/orders/{id}", h.GetOrder)
		r.Put("/orders/{id}/location", h.UpdateLocation)

		r.Group(func(r chi.Router) {
			r.Use(sec.Authenticate)

			r.Get("/orders", h.ListOrders)
			r.Get("/my/membership", h.MyMemberships)
			r.With(RequireRole(auth.RoleKitchen, auth.RoleCashier, auth.RoleWaiter, auth.RoleAdmin)).
				Put("/orders/{id}/status", h.UpdateStatus)
			r.With(RequireRole(auth.RoleCashier)).
				Put("/orders/{id}/payment", h.Pay)
			r.With(RequireRole(auth.RoleCashier, auth.RoleStorage)).
				Get("/transactions", h.ListTransactions)
			r.With(RequireRole(auth.RoleStorage, auth.RoleKitchen)).
				Get("/ingredients", h.ListIngredients)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(auth.RoleAdmin))

				r.Post("/programs", h.CreateProgram)
				r.Get("/programs", h.ListPrograms)
				r.Get("/programs/{id}", h.GetProgram)
				r.Put("/programs/{id}", h.UpdateProgram)
				r.Delete("/programs/{id}", h.DeleteProgram)

				r.Post("/memberships", h.AssignMemberships)
				r.Get("/memberships", h.ListMemberships)
				r.Delete("/memberships/{id}", h.CancelMembership)

				r.Get("/customers/{id}/membership", h.CustomerMemberships)
			})
		})
	})
}

// Router returns a chi router serving the API.
func (h *Handler) Router(sec *SecurityHandler) *chi.Mux {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	h.Routes(r, sec)
	return r
}
