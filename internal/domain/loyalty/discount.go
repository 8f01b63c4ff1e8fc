package loyalty

import (
	"github.com/shopspring/decimal"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// Totals are the pre-discount order sums per category.
type Totals struct {
	Food     decimal.Decimal
	Beverage decimal.Decimal
}

// Subtotal returns Food + Beverage.
func (t Totals) Subtotal() decimal.Decimal {
	return t.Food.Add(t.Beverage)
}

// Add accumulates amount into the bucket for c. Anything that is not a
// beverage counts as food.
func (t *Totals) Add(c product.Category, amount decimal.Decimal) {
	if c == product.CategoryBeverage {
		t.Beverage = t.Beverage.Add(amount)
		return
	}
	t.Food = t.Food.Add(amount)
}

// DiscountInfo is the membership discount breakdown stored on an order.
type DiscountInfo struct {
	MembershipID            string          `json:"membership_id"`
	ProgramName             string          `json:"program_name"`
	FoodDiscountPercent     decimal.Decimal `json:"food_discount_percent"`
	BeverageDiscountPercent decimal.Decimal `json:"beverage_discount_percent"`
	FoodDiscountAmount      decimal.Decimal `json:"food_discount_amount"`
	BeverageDiscountAmount  decimal.Decimal `json:"beverage_discount_amount"`
	TotalDiscount           decimal.Decimal `json:"total_discount"`
}

// ComputeDiscount applies the membership's discount benefits to totals.
//
// Benefits of the same category do not stack: the highest value wins.
// Amounts are rounded to cents half away from zero. The result is nil when
// there is no membership or the discount would be zero.
func ComputeDiscount(m *Membership, totals Totals) *DiscountInfo {
	if m == nil {
		return nil
	}

	foodPct, bevPct := decimal.Zero, decimal.Zero
	for _, b := range m.Benefits {
		c, ok := b.DiscountCategory()
		if !ok {
			continue
		}
		switch c {
		case product.CategoryFood:
			foodPct = decimal.Max(foodPct, b.Value)
		case product.CategoryBeverage:
			bevPct = decimal.Max(bevPct, b.Value)
		}
	}

	foodAmount := percentOf(totals.Food, foodPct)
	bevAmount := percentOf(totals.Beverage, bevPct)
	total := foodAmount.Add(bevAmount)
	if !total.IsPositive() {
		return nil
	}

	return &DiscountInfo{
		MembershipID:            m.ID,
		ProgramName:             m.ProgramName,
		FoodDiscountPercent:     foodPct,
		BeverageDiscountPercent: bevPct,
		FoodDiscountAmount:      foodAmount,
		BeverageDiscountAmount:  bevAmount,
		TotalDiscount:           total,
	}
}

func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Round(2)
}
