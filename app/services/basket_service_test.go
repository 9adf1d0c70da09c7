package services

import (
	"context"
	"testing"
	"time"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anon = repositories.Owner{SessionKey: "session-key-1"}

func TestBasketService_AddCreatesBasketAndIncrements(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	drill := seedProduct(t, s.db, s.cat, "Drill 500", "100")

	view, err := s.baskets.Add(ctx, anon, drill.ID, 1)
	require.NoError(t, err)
	require.Len(t, view.Products, 1)
	assert.Equal(t, 1, view.Products[0].Quantity)
	assertDecimal(t, "100", view.Products[0].CurrentPrice)

	view, err = s.baskets.Add(ctx, anon, drill.ID, 1)
	require.NoError(t, err)
	require.Len(t, view.Products, 1)
	assert.Equal(t, 2, view.Products[0].Quantity)

	view, err = s.baskets.Add(ctx, anon, drill.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, view.Products[0].Quantity)
}

func TestBasketService_WholesalePrice(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	drill := seedProduct(t, s.db, s.cat, "Drill 500", "100", func(p *models.Product) {
		p.WholesaleThreshold = nullDec("5")
		p.WholesalePrice = nullDec("80")
	})

	view, err := s.baskets.Add(ctx, anon, drill.ID, 4)
	require.NoError(t, err)
	assertDecimal(t, "100", view.Products[0].CurrentPrice)

	view, err = s.baskets.Update(ctx, anon, drill.ID, 5)
	require.NoError(t, err)
	assertDecimal(t, "80", view.Products[0].CurrentPrice)
}

func TestBasketService_SpecialPrice(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	drill := seedProduct(t, s.db, s.cat, "Drill 500", "200")

	deadline := time.Now().Add(24 * time.Hour)
	special := models.Special{
		Name:           "Autumn",
		Slug:           "autumn",
		Deadline:       &deadline,
		Discount:       true,
		DiscountType:   models.DiscountPercent,
		DiscountAmount: nullDec("25"),
		Categories:     []models.Category{s.cat.Leaf},
		Activity:       true,
	}
	require.NoError(t, s.db.Create(&special).Error)

	view, err := s.baskets.Add(ctx, anon, drill.ID, 1)
	require.NoError(t, err)
	assertDecimal(t, "150", view.Products[0].CurrentPrice)
	require.NotNil(t, view.Products[0].Special)
	assert.Equal(t, "autumn", view.Products[0].Special.Slug)
}

func TestBasketService_RejectsUnsellable(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	parent := seedProduct(t, s.db, s.cat, "Drill family", "1", func(p *models.Product) {
		p.Kind = models.ProductParent
		p.Art = nil
	})
	hidden := seedProduct(t, s.db, s.cat, "Hidden", "10", func(p *models.Product) {
		p.Activity = false
	})

	_, err := s.baskets.Add(ctx, anon, parent.ID, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = s.baskets.Add(ctx, anon, hidden.ID, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = s.baskets.Add(ctx, anon, "missing", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestBasketService_RemoveAndInactivate(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	drill := seedProduct(t, s.db, s.cat, "Drill", "100")
	saw := seedProduct(t, s.db, s.cat, "Saw", "50")

	_, err := s.baskets.Current(ctx, anon)
	assert.ErrorIs(t, err, ErrBasketNotFound)

	_, err = s.baskets.Add(ctx, anon, drill.ID, 1)
	require.NoError(t, err)
	_, err = s.baskets.Add(ctx, anon, saw.ID, 2)
	require.NoError(t, err)

	view, err := s.baskets.Remove(ctx, anon, drill.ID)
	require.NoError(t, err)
	require.Len(t, view.Products, 1)
	assert.Equal(t, saw.ID, view.Products[0].ID)

	_, err = s.baskets.Remove(ctx, anon, drill.ID)
	assert.ErrorIs(t, err, ErrBasketLineNotFound)

	view, err = s.baskets.Inactivate(ctx, anon)
	require.NoError(t, err)
	assert.Len(t, view.Products, 1)
	_, err = s.baskets.Current(ctx, anon)
	assert.ErrorIs(t, err, ErrBasketNotFound)
}

func TestBasketService_AdoptAnonymousBasket(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	drill := seedProduct(t, s.db, s.cat, "Drill", "100")
	user := seedUser(t, s.db, "buyer@klio.test", true)

	_, err := s.baskets.Add(ctx, anon, drill.ID, 3)
	require.NoError(t, err)
	_, err = s.checkout.Create(ctx, anon)
	require.NoError(t, err)

	require.NoError(t, s.baskets.Adopt(ctx, anon.SessionKey, user.ID))

	owner := repositories.Owner{UserID: user.ID}
	view, err := s.baskets.Current(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Products, 1)
	assert.Equal(t, 3, view.Products[0].Quantity)

	order, err := s.checkout.Active(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, order.UserID)
	assert.Equal(t, user.ID, *order.UserID)
}

func TestBasketService_RepriceKeepsPromo(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	drill := seedProduct(t, s.db, s.cat, "Drill", "100")
	saw := seedProduct(t, s.db, s.cat, "Saw", "50")
	seedPromo(t, s.db, "AUTUMN10", func(p *models.PromoCode) {
		p.Categories = []models.Category{s.cat.Leaf}
	})

	_, err := s.baskets.Add(ctx, anon, drill.ID, 1)
	require.NoError(t, err)
	_, err = s.checkout.Create(ctx, anon)
	require.NoError(t, err)
	_, err = s.checkout.UpdateActive(ctx, anon, ActiveUpdate{PromoCode: ptr("AUTUMN10")})
	require.NoError(t, err)

	view, err := s.baskets.Add(ctx, anon, saw.ID, 2)
	require.NoError(t, err)
	for _, line := range view.Products {
		assert.True(t, line.PromoPrice.Valid, line.Name)
	}

	order, err := s.checkout.Active(ctx, anon)
	require.NoError(t, err)
	assert.True(t, order.Promo)
	require.True(t, order.Price.Valid)
	assertDecimal(t, "180", order.Price.Decimal)
}

func TestBasketService_RepriceDropsExpiredPromo(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	drill := seedProduct(t, s.db, s.cat, "Drill", "100")
	promo := seedPromo(t, s.db, "SHORT", func(p *models.PromoCode) {
		p.Categories = []models.Category{s.cat.Leaf}
	})

	_, err := s.baskets.Add(ctx, anon, drill.ID, 1)
	require.NoError(t, err)
	_, err = s.checkout.Create(ctx, anon)
	require.NoError(t, err)
	_, err = s.checkout.UpdateActive(ctx, anon, ActiveUpdate{PromoCode: ptr("SHORT")})
	require.NoError(t, err)

	require.NoError(t, s.db.Model(&promo).Update("activity", false).Error)

	view, err := s.baskets.Update(ctx, anon, drill.ID, 2)
	require.NoError(t, err)
	assert.False(t, view.Products[0].PromoPrice.Valid)

	order, err := s.checkout.Active(ctx, anon)
	require.NoError(t, err)
	assert.False(t, order.Promo)
	assert.Empty(t, order.PromoCode)
	assert.False(t, order.Price.Valid)
}
