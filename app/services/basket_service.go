package services

import (
	"context"
	"fmt"
	"time"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BasketService struct {
	db       *gorm.DB
	baskets  repositories.BasketRepository
	orders   repositories.OrderRepository
	products repositories.ProductRepositoryImpl
	promos   repositories.PromoCodeRepository
	pricer   *Pricer
	rates    DeliveryRates
	now      func() time.Time
}

func NewBasketService(
	db *gorm.DB,
	baskets repositories.BasketRepository,
	orders repositories.OrderRepository,
	products repositories.ProductRepositoryImpl,
	promos repositories.PromoCodeRepository,
	pricer *Pricer,
	rates DeliveryRates,
) *BasketService {
	return &BasketService{
		db:       db,
		baskets:  baskets,
		orders:   orders,
		products: products,
		promos:   promos,
		pricer:   pricer,
		rates:    rates,
		now:      time.Now,
	}
}

func (s *BasketService) view(ctx context.Context, basket *models.Basket) (*BasketView, error) {
	index, err := s.pricer.Index(ctx)
	if err != nil {
		return nil, err
	}
	return NewBasketView(basket, index, s.now()), nil
}

func (s *BasketService) reload(ctx context.Context, basketID string) (*BasketView, error) {
	basket, err := s.baskets.FindByID(ctx, basketID)
	if err != nil {
		return nil, fmt.Errorf("reload basket: %w", err)
	}
	if basket == nil {
		return nil, ErrBasketNotFound
	}
	return s.view(ctx, basket)
}

func (s *BasketService) Current(ctx context.Context, owner repositories.Owner) (*BasketView, error) {
	basket, err := s.baskets.FindActive(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("find basket: %w", err)
	}
	if basket == nil {
		return nil, ErrBasketNotFound
	}
	return s.view(ctx, basket)
}

// Add puts amount units of a product into the owner's basket, creating
// the basket and the line as needed. Adding a single unit to an existing
// line increments it; any other amount replaces the quantity.
func (s *BasketService) Add(ctx context.Context, owner repositories.Owner, productID string, amount int) (*BasketView, error) {
	product, err := s.sellable(ctx, productID)
	if err != nil {
		return nil, err
	}

	basket, err := s.baskets.Create(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get or create basket: %w", err)
	}

	line, err := s.baskets.FindLine(ctx, basket.ID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("find basket line: %w", err)
	}
	if line != nil && amount == 1 {
		line.Quantity++
	} else {
		if line == nil {
			line = &models.BasketProduct{BasketID: basket.ID, ProductID: product.ID}
		}
		line.Quantity = max(amount, 1)
	}

	if err := s.storeLine(ctx, basket, product, line); err != nil {
		return nil, err
	}
	return s.reload(ctx, basket.ID)
}

func (s *BasketService) Update(ctx context.Context, owner repositories.Owner, productID string, amount int) (*BasketView, error) {
	basket, line, err := s.findLine(ctx, owner, productID)
	if err != nil {
		return nil, err
	}
	product, err := s.sellable(ctx, productID)
	if err != nil {
		return nil, err
	}

	line.Quantity = max(amount, 1)
	if err := s.storeLine(ctx, basket, product, line); err != nil {
		return nil, err
	}
	return s.reload(ctx, basket.ID)
}

func (s *BasketService) Remove(ctx context.Context, owner repositories.Owner, productID string) (*BasketView, error) {
	basket, line, err := s.findLine(ctx, owner, productID)
	if err != nil {
		return nil, err
	}
	if err := s.baskets.DeleteLine(ctx, line); err != nil {
		return nil, fmt.Errorf("delete basket line: %w", err)
	}
	if err := s.baskets.Touch(ctx, basket.ID); err != nil {
		return nil, fmt.Errorf("touch basket: %w", err)
	}
	if err := s.Reprice(ctx, basket.ID); err != nil {
		return nil, err
	}
	return s.reload(ctx, basket.ID)
}

func (s *BasketService) Inactivate(ctx context.Context, owner repositories.Owner) (*BasketView, error) {
	basket, err := s.baskets.FindActive(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("find basket: %w", err)
	}
	if basket == nil {
		return nil, ErrBasketNotFound
	}
	if err := s.baskets.Deactivate(ctx, nil, basket.ID); err != nil {
		return nil, fmt.Errorf("deactivate basket: %w", err)
	}
	basket.IsActive = false
	return s.view(ctx, basket)
}

// Adopt hands the anonymous basket of sessionKey, and the orders made from
// it, over to userID. A user who already has an active basket keeps it.
func (s *BasketService) Adopt(ctx context.Context, sessionKey, userID string) error {
	if sessionKey == "" {
		return nil
	}
	anonymous, err := s.baskets.FindActive(ctx, repositories.Owner{SessionKey: sessionKey})
	if err != nil || anonymous == nil {
		return err
	}
	own, err := s.baskets.FindActive(ctx, repositories.Owner{UserID: userID})
	if err != nil {
		return err
	}
	if own != nil {
		return nil
	}
	if err := s.baskets.AssignUser(ctx, anonymous.ID, userID); err != nil {
		return fmt.Errorf("assign basket: %w", err)
	}
	if err := s.orders.AssignUserByBasket(ctx, anonymous.ID, userID); err != nil {
		return fmt.Errorf("assign orders: %w", err)
	}
	zap.L().Info("BasketService.Adopt: anonymous basket adopted", zap.String("basket_id", anonymous.ID), zap.String("user_id", userID))
	return nil
}

func (s *BasketService) sellable(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.products.FindActiveByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product == nil || product.Kind == models.ProductParent || !product.Price.Valid {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *BasketService) findLine(ctx context.Context, owner repositories.Owner, productID string) (*models.Basket, *models.BasketProduct, error) {
	basket, err := s.baskets.FindActive(ctx, owner)
	if err != nil {
		return nil, nil, fmt.Errorf("find basket: %w", err)
	}
	if basket == nil {
		return nil, nil, ErrBasketNotFound
	}
	line, err := s.baskets.FindLine(ctx, basket.ID, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("find basket line: %w", err)
	}
	if line == nil {
		return nil, nil, ErrBasketLineNotFound
	}
	return basket, line, nil
}

func (s *BasketService) storeLine(ctx context.Context, basket *models.Basket, product *models.Product, line *models.BasketProduct) error {
	index, err := s.pricer.Index(ctx)
	if err != nil {
		return err
	}
	line.Price = EffectivePrice(product, index.Resolve(product), line.Quantity)
	line.PromoPrice = decimal.NullDecimal{}
	if err := s.baskets.SaveLine(ctx, line); err != nil {
		return fmt.Errorf("save basket line: %w", err)
	}
	if err := s.baskets.Touch(ctx, basket.ID); err != nil {
		return fmt.Errorf("touch basket: %w", err)
	}
	return s.Reprice(ctx, basket.ID)
}

// Reprice keeps the active order of a basket consistent after its lines
// changed: a previously applied promo code is applied again, otherwise the
// computed price is dropped. The delivery fee follows the new total.
func (s *BasketService) Reprice(ctx context.Context, basketID string) error {
	basket, err := s.baskets.FindByID(ctx, basketID)
	if err != nil || basket == nil {
		return err
	}
	owner := repositories.Owner{}
	if basket.UserID != nil {
		owner.UserID = *basket.UserID
	} else if basket.SessionKey != nil {
		owner.SessionKey = *basket.SessionKey
	}
	order, err := s.orders.FindByStatus(ctx, owner, models.OrderStatusActive)
	if err != nil {
		return fmt.Errorf("find active order: %w", err)
	}
	if order == nil || order.BasketID != basket.ID {
		return nil
	}

	var promo *models.PromoCode
	if order.Promo && order.PromoCode != "" {
		promo, err = s.promos.FindByCode(ctx, order.PromoCode)
		if err != nil {
			return fmt.Errorf("find promo code: %w", err)
		}
		if promo != nil && !promo.IsValidOn(s.now()) {
			promo = nil
		}
	}

	if promo == nil {
		order.Promo = false
		order.PromoCode = ""
		order.Price = decimal.NullDecimal{}
		ApplyPromo(basket.Products, nil)
	} else {
		order.Price = decimal.NewNullDecimal(ApplyPromo(basket.Products, promo))
	}
	refreshed := s.rates.Refresh(order, checkoutTotal(order, basket.Products))

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.baskets.SaveLines(ctx, tx, basket.Products); err != nil {
			return fmt.Errorf("save basket lines: %w", err)
		}
		if err := s.orders.Save(ctx, tx, order); err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		if refreshed {
			if err := s.orders.SaveDeliveryInfo(ctx, tx, order.DeliveryInfo); err != nil {
				return fmt.Errorf("save delivery info: %w", err)
			}
		}
		return nil
	})
}
