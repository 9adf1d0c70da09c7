package format

import (
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

var rub = accounting.Accounting{
	Symbol:    "₽",
	Precision: 2,
	Thousand:  " ",
	Decimal:   ",",
	Format:    "%v %s",
}

// Money renders an amount the way Russian price tags do: "1 234,50 ₽".
func Money(amount interface{}) string {
	var value decimal.Decimal
	switch v := amount.(type) {
	case decimal.Decimal:
		value = v
	case decimal.NullDecimal:
		if !v.Valid {
			return ""
		}
		value = v.Decimal
	case float64:
		value = decimal.NewFromFloat(v)
	case int:
		value = decimal.NewFromInt(int64(v))
	case int64:
		value = decimal.NewFromInt(v)
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return rub.FormatMoneyDecimal(decimal.Zero)
		}
		value = parsed
	default:
		return rub.FormatMoneyDecimal(decimal.Zero)
	}
	return rub.FormatMoneyDecimal(value)
}

// Plain is Money without the currency sign, for CSV cells.
func Plain(amount decimal.Decimal) string {
	return accounting.FormatNumberDecimal(amount, 2, "", ".")
}
