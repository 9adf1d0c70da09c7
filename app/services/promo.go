package services

import (
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/utils/calc"
	"github.com/shopspring/decimal"
)

// PromoEligible reports whether promo reaches product through its product
// list, its categories or its tags.
func PromoEligible(product *models.Product, promo *models.PromoCode) bool {
	if !product.Activity {
		return false
	}
	for _, p := range promo.Products {
		if p.ID == product.ID {
			return true
		}
	}
	if categoryID := product.EffectiveCategoryID(); categoryID != nil {
		for _, c := range promo.Categories {
			if c.ID == *categoryID {
				return true
			}
		}
	}
	for _, tag := range product.EffectiveTags() {
		for _, t := range promo.Tags {
			if t.ID == tag.ID {
				return true
			}
		}
	}
	return false
}

// ApplyPromo sets promo_price on the eligible lines, clears it elsewhere and
// returns the new basket total. A nil promo clears every line.
func ApplyPromo(lines []models.BasketProduct, promo *models.PromoCode) decimal.Decimal {
	for i := range lines {
		line := &lines[i]
		if promo != nil && PromoEligible(&line.Product, promo) {
			line.PromoPrice = decimal.NewNullDecimal(calc.ApplyDiscount(line.Price, promo.DiscountType, promo.DiscountAmount))
		} else {
			line.PromoPrice = decimal.NullDecimal{}
		}
	}
	return LinesTotal(lines)
}

func LinesTotal(lines []models.BasketProduct) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].Total())
	}
	return total
}
