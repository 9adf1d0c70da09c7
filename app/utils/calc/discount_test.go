package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name   string
		price  string
		kind   string
		amount string
		want   string
	}{
		{"percent", "100", Percent, "10", "90"},
		{"percent rounds to kopecks", "99.99", Percent, "15", "84.99"},
		{"full percent", "250", Percent, "100", "0"},
		{"fixed", "100", Fixed, "30", "70"},
		{"fixed never negative", "100", Fixed, "130", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyDiscount(d(tt.price), tt.kind, d(tt.amount))
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(123450), ToMinorUnits(d("1234.5")))
	assert.Equal(t, int64(1), ToMinorUnits(d("0.005")))
}

func TestLineTotal(t *testing.T) {
	assert.True(t, d("37.5").Equal(LineTotal(d("12.5"), 3)))
}
