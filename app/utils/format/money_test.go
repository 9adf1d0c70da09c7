package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "1 234,50 ₽", Money(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0,00 ₽", Money("not a number"))
	assert.Equal(t, "", Money(decimal.NullDecimal{}))
	assert.Equal(t, "15,00 ₽", Money(15))
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "1234.50", Plain(decimal.RequireFromString("1234.5")))
}
