package services

import (
	"testing"
	"time"

	"github.com/klioshop/klio/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecialIndex_Resolve(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	later := now.Add(48 * time.Hour)
	earlier := now.Add(-48 * time.Hour)

	category := "cat-1"
	product := &models.Product{
		ID:         "p-1",
		Price:      nullDec("200"),
		CategoryID: &category,
		Tags:       []models.Tag{{ID: "tag-1", Activity: true}},
	}

	byProduct := models.Special{
		Slug: "direct", Activity: true, Deadline: &later,
		DiscountType: models.DiscountPercent, DiscountAmount: nullDec("50"),
		Products: []models.SpecialProduct{{ProductID: "p-1", DiscountAmount: nullDec("30")}},
	}
	byCategory := models.Special{
		Slug: "category", Activity: true, Deadline: &later, Threshold: ptr(3),
		DiscountType: models.DiscountPercent, DiscountAmount: nullDec("10"),
		Categories: []models.Category{{ID: category}},
	}
	byTag := models.Special{
		Slug: "tag", Activity: true, Deadline: &later,
		DiscountType: models.DiscountFixed, DiscountAmount: nullDec("5"),
		Tags: []models.Tag{{ID: "tag-1"}},
	}
	expired := models.Special{
		Slug: "expired", Activity: true, Deadline: &earlier,
		Products: []models.SpecialProduct{{ProductID: "p-1"}},
	}

	t.Run("product link wins with its own amount", func(t *testing.T) {
		got := NewSpecialIndex([]models.Special{byTag, byCategory, byProduct}, now).Resolve(product)
		require.NotNil(t, got)
		assert.Equal(t, "direct", got.Slug)
		assertDecimal(t, "170", got.NewPrice)
	})

	t.Run("category before tag", func(t *testing.T) {
		got := NewSpecialIndex([]models.Special{byTag, byCategory}, now).Resolve(product)
		require.NotNil(t, got)
		assert.Equal(t, "category", got.Slug)
		assert.Equal(t, 3, got.Threshold)
		assertDecimal(t, "180", got.NewPrice)
	})

	t.Run("tag", func(t *testing.T) {
		got := NewSpecialIndex([]models.Special{byTag}, now).Resolve(product)
		require.NotNil(t, got)
		assertDecimal(t, "195", got.NewPrice)
	})

	t.Run("inactive tag does not count", func(t *testing.T) {
		p := *product
		p.Tags = []models.Tag{{ID: "tag-1", Activity: false}}
		assert.Nil(t, NewSpecialIndex([]models.Special{byTag}, now).Resolve(&p))
	})

	t.Run("expired specials are skipped", func(t *testing.T) {
		index := NewSpecialIndex([]models.Special{expired}, now)
		assert.Empty(t, index.Running())
		assert.Nil(t, index.Resolve(product))
	})

	t.Run("child inherits parent category", func(t *testing.T) {
		parent := &models.Product{ID: "parent", Kind: models.ProductParent, CategoryID: &category}
		child := &models.Product{ID: "child", Kind: models.ProductChild, Parent: parent, Price: nullDec("100")}
		got := NewSpecialIndex([]models.Special{byCategory}, now).Resolve(child)
		require.NotNil(t, got)
		assertDecimal(t, "90", got.NewPrice)
	})
}

func TestEffectivePrice(t *testing.T) {
	p := &models.Product{
		Price:              nullDec("100"),
		WholesaleThreshold: nullDec("10"),
		WholesalePrice:     nullDec("70"),
	}
	special := &SpecialPrice{Slug: "s", NewPrice: dec("85")}

	assertDecimal(t, "100", EffectivePrice(p, nil, 1))
	assertDecimal(t, "85", EffectivePrice(p, special, 9))
	assertDecimal(t, "70", EffectivePrice(p, special, 10))
}

func TestDeliveryRates_Price(t *testing.T) {
	rates := DeliveryRates{HomeCityID: "msk", HomePrice: dec("300"), RegionPrice: dec("700"), FreeFrom: dec("5000")}

	assertDecimal(t, "0", rates.Price(&models.OrderDeliveryInfo{Type: models.DeliveryPickup}, dec("10")))
	assertDecimal(t, "300", rates.Price(&models.OrderDeliveryInfo{Type: models.DeliveryCourier, ToCityID: ptr("msk")}, dec("10")))
	assertDecimal(t, "700", rates.Price(&models.OrderDeliveryInfo{Type: models.DeliveryCompany, ToCityID: ptr("spb")}, dec("10")))
	assertDecimal(t, "0", rates.Price(&models.OrderDeliveryInfo{Type: models.DeliveryCompany, ToCityID: ptr("spb")}, dec("5000")))
}

func TestApplyPromo(t *testing.T) {
	category := "cat-1"
	eligible := models.Product{ID: "a", Activity: true, CategoryID: &category}
	other := models.Product{ID: "b", Activity: true}
	lines := []models.BasketProduct{
		{Product: eligible, Price: dec("100"), Quantity: 2},
		{Product: other, Price: dec("50"), Quantity: 1},
	}
	promo := &models.PromoCode{
		DiscountType:   models.DiscountFixed,
		DiscountAmount: dec("15"),
		Categories:     []models.Category{{ID: category}},
	}

	assertDecimal(t, "220", ApplyPromo(lines, promo))
	assertDecimal(t, "85", lines[0].PromoPrice.Decimal)
	assert.False(t, lines[1].PromoPrice.Valid)

	assertDecimal(t, "250", ApplyPromo(lines, nil))
	assert.False(t, lines[0].PromoPrice.Valid)
}
