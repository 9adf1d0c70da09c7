package services

import (
	"github.com/klioshop/klio/app/models"
	"github.com/shopspring/decimal"
)

// DeliveryRates are the flat shipping fees: one for the home city, one for
// everywhere else.
type DeliveryRates struct {
	HomeCityID  string
	HomePrice   decimal.Decimal
	RegionPrice decimal.Decimal
	FreeFrom    decimal.Decimal
}

func (r DeliveryRates) Price(info *models.OrderDeliveryInfo, basketTotal decimal.Decimal) decimal.Decimal {
	if info.Type == models.DeliveryPickup {
		return decimal.Zero
	}
	if r.FreeFrom.IsPositive() && basketTotal.GreaterThanOrEqual(r.FreeFrom) {
		return decimal.Zero
	}
	if info.ToCityID != nil && *info.ToCityID == r.HomeCityID {
		return r.HomePrice
	}
	return r.RegionPrice
}

// Refresh recomputes the fee of an order that already has delivery info.
// It reports whether the fee changed.
func (r DeliveryRates) Refresh(order *models.Order, basketTotal decimal.Decimal) bool {
	if order.DeliveryInfo == nil {
		return false
	}
	price := r.Price(order.DeliveryInfo, basketTotal)
	if price.Equal(order.DeliveryInfo.Price) {
		return false
	}
	order.DeliveryInfo.Price = price
	return true
}

// checkoutTotal is what the free delivery threshold compares against: the
// computed order price when there is one, the basket lines otherwise.
func checkoutTotal(order *models.Order, lines []models.BasketProduct) decimal.Decimal {
	if order.Price.Valid {
		return order.Price.Decimal
	}
	return LinesTotal(lines)
}
