package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/order"
)

type orderItemBody struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func (b orderItemBody) item() order.Item {
	return order.Item{
		ProductID:   b.ProductID,
		ProductName: b.ProductName,
		Quantity:    b.Quantity,
		Price:       b.Price,
	}
}

func toDomainItems(body []orderItemBody) []order.Item {
	items := make([]order.Item, len(body))
	for i, b := range body {
		items[i] = b.item()
	}
	return items
}

type orderCreateBody struct {
	CustomerID       string          `json:"customer_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	OrderType        string          `json:"order_type"`
	TableID          string          `json:"table_id"`
	TableNumber      *int            `json:"table_number"`
	Items            []orderItemBody `json:"items"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	CustomerLocation *order.Location `json:"customer_location"`
	Notes            string          `json:"notes"`
}

type previewBody struct {
	CustomerID string          `json:"customer_id"`
	Items      []orderItemBody `json:"items"`
}

type statusBody struct {
	Status string `json:"status"`
}

type paymentBody struct {
	PaymentMethod string `json:"payment_method"`
}

type paymentResponse struct {
	Message     string              `json:"message"`
	Transaction transactionResponse `json:"transaction"`
}

// CreateOrder places an order and returns the stored snapshot.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var body orderCreateBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Items == nil {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}

	o, err := h.orders.CreateOrder(r.Context(), order.CreateOrderRequest{
		CustomerID:    body.CustomerID,
		CustomerName:  body.CustomerName,
		CustomerEmail: body.CustomerEmail,
		Type:          order.Type(body.OrderType),
		TableID:       body.TableID,
		TableNumber:   body.TableNumber,
		Items:         toDomainItems(body.Items),
		ClientTotal:   body.TotalAmount,
		Location:      body.CustomerLocation,
		Notes:         body.Notes,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

// PreviewDiscount prices a cart for the customer without placing it.
func (h *Handler) PreviewDiscount(w http.ResponseWriter, r *http.Request) {
	var body previewBody
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := h.orders.PreviewDiscount(r.Context(), order.PreviewRequest{
		CustomerID: body.CustomerID,
		Items:      toDomainItems(body.Items),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreview(p))
}

// GetOrder returns one order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

// ListOrders returns orders filtered by ?status= and ?order_type=.
// Customers only ever see their own orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := order.Filter{
		Status: order.Status(q.Get("status")),
		Type:   order.Type(q.Get("order_type")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if filter.Type != "" && !filter.Type.Valid() {
		writeError(w, http.StatusBadRequest, "invalid order_type")
		return
	}
	if p, _ := auth.PrincipalFrom(r.Context()); p.Role == auth.RoleCustomer {
		filter.CustomerID = p.UserID
	}

	orders, err := h.orders.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrder(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateStatus moves an order through the kitchen workflow.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.Status(body.Status)); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Order status updated"})
}

// UpdateLocation stores the customer's shared location.
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var loc order.Location
	if !decodeJSON(w, r, &loc) {
		return
	}
	if err := h.orders.UpdateLocation(r.Context(), chi.URLParam(r, "id"), loc); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Location updated"})
}

// Pay settles an order and returns the recorded transaction.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	var body paymentBody
	if !decodeJSON(w, r, &body) {
		return
	}
	t, err := h.orders.Pay(r.Context(), chi.URLParam(r, "id"), order.PaymentMethod(body.PaymentMethod))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{
		Message:     "Payment processed",
		Transaction: toTransaction(t),
	})
}

// ListTransactions returns payment records, newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.orders.ListTransactions(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]transactionResponse, len(txns))
	for i := range txns {
		out[i] = toTransaction(&txns[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// ListIngredients returns current stock levels.
func (h *Handler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.ingredients.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]ingredientResponse, len(ingredients))
	for i, in := range ingredients {
		out[i] = toIngredient(in)
	}
	writeJSON(w, http.StatusOK, out)
}
