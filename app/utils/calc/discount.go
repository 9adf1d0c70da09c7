package calc

import "github.com/shopspring/decimal"

const (
	Percent = "percent"
	Fixed   = "fixed"
)

var hundred = decimal.NewFromInt(100)

func CalculateDiscount(baseTotal, discountPercent decimal.Decimal) decimal.Decimal {
	return baseTotal.Mul(discountPercent).Div(hundred)
}

// ApplyDiscount returns price reduced by amount, read as a percentage for
// Percent and as money otherwise. The result never drops below zero and is
// rounded to kopecks.
func ApplyDiscount(price decimal.Decimal, kind string, amount decimal.Decimal) decimal.Decimal {
	var result decimal.Decimal
	if kind == Fixed {
		result = price.Sub(amount)
	} else {
		result = price.Sub(CalculateDiscount(price, amount))
	}
	if result.IsNegative() {
		return decimal.Zero
	}
	return result.Round(2)
}

func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// ToMinorUnits converts roubles to kopecks.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
