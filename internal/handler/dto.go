package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/inventory"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/order"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// Response bodies render money as JSON numbers.

type recipeLineResponse struct {
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
}

type productResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Price       float64              `json:"price"`
	ImageURL    *string              `json:"image_url"`
	Recipes     []recipeLineResponse `json:"recipes"`
	Available   bool                 `json:"available"`
	CreatedAt   time.Time            `json:"created_at"`
}

func (h *Handler) toProduct(p product.Product) productResponse {
	recipes := make([]recipeLineResponse, len(p.Recipe))
	for i, l := range p.Recipe {
		recipes[i] = recipeLineResponse{IngredientID: l.IngredientID, Quantity: l.Quantity.InexactFloat64()}
	}
	var image *string
	if p.ImageURL != "" {
		u := h.imageBaseURL + p.ImageURL
		image = &u
	}
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    string(p.Category),
		Price:       p.Price.InexactFloat64(),
		ImageURL:    image,
		Recipes:     recipes,
		Available:   p.Available,
		CreatedAt:   p.CreatedAt,
	}
}

type orderItemResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Category    *string `json:"category"`
}

func toItems(items []order.Item) []orderItemResponse {
	out := make([]orderItemResponse, len(items))
	for i, it := range items {
		out[i] = orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price.InexactFloat64(),
			Category:    optional(string(it.Category)),
		}
	}
	return out
}

type discountResponse struct {
	MembershipID            string  `json:"membership_id"`
	ProgramName             string  `json:"program_name"`
	FoodDiscountPercent     float64 `json:"food_discount_percent"`
	BeverageDiscountPercent float64 `json:"beverage_discount_percent"`
	FoodDiscountAmount      float64 `json:"food_discount_amount"`
	BeverageDiscountAmount  float64 `json:"beverage_discount_amount"`
	TotalDiscount           float64 `json:"total_discount"`
}

func toDiscount(d *loyalty.DiscountInfo) *discountResponse {
	if d == nil {
		return nil
	}
	return &discountResponse{
		MembershipID:            d.MembershipID,
		ProgramName:             d.ProgramName,
		FoodDiscountPercent:     d.FoodDiscountPercent.InexactFloat64(),
		BeverageDiscountPercent: d.BeverageDiscountPercent.InexactFloat64(),
		FoodDiscountAmount:      d.FoodDiscountAmount.InexactFloat64(),
		BeverageDiscountAmount:  d.BeverageDiscountAmount.InexactFloat64(),
		TotalDiscount:           d.TotalDiscount.InexactFloat64(),
	}
}

type orderResponse struct {
	ID               string              `json:"id"`
	OrderNumber      string              `json:"order_number"`
	CustomerID       *string             `json:"customer_id"`
	CustomerName     *string             `json:"customer_name"`
	CustomerEmail    *string             `json:"customer_email"`
	OrderType        string              `json:"order_type"`
	TableID          *string             `json:"table_id"`
	TableNumber      *int                `json:"table_number"`
	Items            []orderItemResponse `json:"items"`
	Subtotal         float64             `json:"subtotal"`
	DiscountInfo     *discountResponse   `json:"discount_info"`
	TotalAmount      float64             `json:"total_amount"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"payment_status"`
	PaymentMethod    *string             `json:"payment_method"`
	CustomerLocation *order.Location     `json:"customer_location"`
	Notes            *string             `json:"notes"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func toOrder(o *order.Order) orderResponse {
	return orderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerID:       optional(o.CustomerID),
		CustomerName:     optional(o.CustomerName),
		CustomerEmail:    optional(o.CustomerEmail),
		OrderType:        string(o.Type),
		TableID:          optional(o.TableID),
		TableNumber:      o.TableNumber,
		Items:            toItems(o.Items),
		Subtotal:         o.Subtotal.InexactFloat64(),
		DiscountInfo:     toDiscount(o.Discount),
		TotalAmount:      o.Total.InexactFloat64(),
		Status:           string(o.Status),
		PaymentStatus:    string(o.PaymentStatus),
		PaymentMethod:    optional(string(o.PaymentMethod)),
		CustomerLocation: o.Location,
		Notes:            optional(o.Notes),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

type previewResponse struct {
	Subtotal      float64           `json:"subtotal"`
	FoodTotal     float64           `json:"food_total"`
	BeverageTotal float64           `json:"beverage_total"`
	DiscountInfo  *discountResponse `json:"discount_info"`
	TotalDiscount float64           `json:"total_discount"`
	FinalAmount   float64           `json:"final_amount"`
	HasMembership bool              `json:"has_membership"`
}

func toPreview(p *order.Preview) previewResponse {
	return previewResponse{
		Subtotal:      p.Subtotal.InexactFloat64(),
		FoodTotal:     p.FoodTotal.InexactFloat64(),
		BeverageTotal: p.BeverageTotal.InexactFloat64(),
		DiscountInfo:  toDiscount(p.Discount),
		TotalDiscount: p.TotalDiscount.InexactFloat64(),
		FinalAmount:   p.FinalAmount.InexactFloat64(),
		HasMembership: p.HasMembership,
	}
}

type receiptResponse struct {
	OrderNumber   string              `json:"order_number"`
	Items         []orderItemResponse `json:"items"`
	Total         float64             `json:"total"`
	PaymentMethod string              `json:"payment_method"`
	Timestamp     time.Time           `json:"timestamp"`
}

type transactionResponse struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	Amount        float64         `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	ReceiptData   receiptResponse `json:"receipt_data"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toTransaction(t *order.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		OrderID:       t.OrderID,
		Amount:        t.Amount.InexactFloat64(),
		PaymentMethod: string(t.PaymentMethod),
		ReceiptData: receiptResponse{
			OrderNumber:   t.Receipt.OrderNumber,
			Items:         toItems(t.Receipt.Items),
			Total:         t.Receipt.Total.InexactFloat64(),
			PaymentMethod: string(t.Receipt.PaymentMethod),
			Timestamp:     t.Receipt.Timestamp,
		},
		CreatedAt: t.CreatedAt,
	}
}

type ingredientResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	CurrentStock float64   `json:"current_stock"`
	MinStock     float64   `json:"min_stock"`
	CostPerUnit  float64   `json:"cost_per_unit"`
	Low          bool      `json:"low_stock"`
	CreatedAt    time.Time `json:"created_at"`
}

func toIngredient(i inventory.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:           i.ID,
		Name:         i.Name,
		Unit:         i.Unit,
		CurrentStock: i.CurrentStock.InexactFloat64(),
		MinStock:     i.MinStock.InexactFloat64(),
		CostPerUnit:  i.CostPerUnit.InexactFloat64(),
		Low:          i.Low(),
		CreatedAt:    i.CreatedAt,
	}
}

type benefitBody struct {
	BenefitType string          `json:"benefit_type"`
	Value       decimal.Decimal `json:"value"`
	Description string          `json:"description"`
}

type benefitResponse struct {
	BenefitType string  `json:"benefit_type"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

func toBenefits(bs []loyalty.Benefit) []benefitResponse {
	out := make([]benefitResponse, len(bs))
	for i, b := range bs {
		out[i] = benefitResponse{
			BenefitType: string(b.Type),
			Value:       b.Value.InexactFloat64(),
			Description: b.Description,
		}
	}
	return out
}

type programResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	DurationType  string               `json:"duration_type"`
	DurationValue *int                 `json:"duration_value"`
	Benefits      []benefitResponse    `json:"benefits"`
	IsGroup       bool                 `json:"is_group"`
	Color         string               `json:"color"`
	CreatedAt     time.Time            `json:"created_at"`
	ActiveMembers *int                 `json:"active_members,omitempty"`
	Members       []membershipResponse `json:"members,omitempty"`
}

func toProgram(p *loyalty.Program) programResponse {
	var duration *int
	if p.DurationType != loyalty.DurationLifetime {
		v := p.DurationValue
		duration = &v
	}
	return programResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		DurationType:  string(p.DurationType),
		DurationValue: duration,
		Benefits:      toBenefits(p.Benefits),
		IsGroup:       p.IsGroup,
		Color:         p.Color,
		CreatedAt:     p.CreatedAt,
	}
}

func toProgramView(v *loyalty.ProgramView, withMembers bool) programResponse {
	out := toProgram(&v.Program)
	n := v.ActiveMembers
	out.ActiveMembers = &n
	if withMembers {
		out.Members = make([]membershipResponse, len(v.Members))
		for i := range v.Members {
			out.Members[i] = toMemberView(&v.Members[i])
		}
	}
	return out
}

type membershipResponse struct {
	ID            string            `json:"id"`
	CustomerID    string            `json:"customer_id"`
	ProgramID     string            `json:"program_id"`
	ProgramName   string            `json:"program_name"`
	StartDate     time.Time         `json:"start_date"`
	EndDate       *time.Time        `json:"end_date"`
	Status        string            `json:"status"`
	Benefits      []benefitResponse `json:"benefits"`
	CustomerName  string            `json:"customer_name,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
}

func toMembership(m *loyalty.Membership) membershipResponse {
	return membershipResponse{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		ProgramID:   m.ProgramID,
		ProgramName: m.ProgramName,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		Status:      string(m.Status),
		Benefits:    toBenefits(m.Benefits),
	}
}

func toMemberView(v *loyalty.MemberView) membershipResponse {
	out := toMembership(&v.Membership)
	out.CustomerName = v.CustomerName
	out.CustomerEmail = v.CustomerEmail
	return out
}

func toMemberships(ms []loyalty.Membership) []membershipResponse {
	out := make([]membershipResponse, len(ms))
	for i := range ms {
		out[i] = toMembership(&ms[i])
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
