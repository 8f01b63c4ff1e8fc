package loyalty

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// BenefitType enumerates the perks a program can grant.
type BenefitType string

const (
	// BenefitFoodDiscount takes a percentage off food lines.
	BenefitFoodDiscount BenefitType = "food_discount"
	// BenefitBeverageDiscount takes a percentage off beverage lines.
	BenefitBeverageDiscount BenefitType = "beverage_discount"
	// BenefitWifiDiscount is informational and has no monetary effect.
	BenefitWifiDiscount BenefitType = "wifi_discount"
	// BenefitCustom is a free-form perk with no monetary effect.
	BenefitCustom BenefitType = "custom"
)

var hundred = decimal.NewFromInt(100)

// Benefit is one perk of a program. Value is a percentage in [0, 100].
type Benefit struct {
	Type        BenefitType     `json:"benefit_type"`
	Value       decimal.Decimal `json:"value"`
	Description string          `json:"description"`
}

// Validate rejects unknown benefit types and out of range values.
func (b Benefit) Validate() error {
	switch b.Type {
	case BenefitFoodDiscount, BenefitBeverageDiscount, BenefitWifiDiscount, BenefitCustom:
	default:
		return &ValidationError{Field: "benefit_type", Reason: fmt.Sprintf("unknown value %q", b.Type)}
	}
	if b.Value.IsNegative() || b.Value.GreaterThan(hundred) {
		return &ValidationError{Field: "value", Reason: "must be between 0 and 100"}
	}
	return nil
}

// DiscountCategory returns the product category a discount benefit applies
// to. ok is false for benefits without a monetary effect.
func (b Benefit) DiscountCategory() (c product.Category, ok bool) {
	switch b.Type {
	case BenefitFoodDiscount:
		return product.CategoryFood, true
	case BenefitBeverageDiscount:
		return product.CategoryBeverage, true
	default:
		return "", false
	}
}
