package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutConfig struct {
	Rates       DeliveryRates
	AdminEmails []string
	AppURL      string
}

type CheckoutService struct {
	db      *gorm.DB
	baskets repositories.BasketRepository
	orders  repositories.OrderRepository
	promos  repositories.PromoCodeRepository
	mailer  Notifier
	cfg     CheckoutConfig
	now     func() time.Time
}

func NewCheckoutService(
	db *gorm.DB,
	baskets repositories.BasketRepository,
	orders repositories.OrderRepository,
	promos repositories.PromoCodeRepository,
	mailer Notifier,
	cfg CheckoutConfig,
) *CheckoutService {
	return &CheckoutService{
		db:      db,
		baskets: baskets,
		orders:  orders,
		promos:  promos,
		mailer:  mailer,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Create opens the checkout for the owner's active basket. Calling it again
// returns the same order.
func (s *CheckoutService) Create(ctx context.Context, owner repositories.Owner) (*models.Order, error) {
	basket, err := s.baskets.FindActive(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("find basket: %w", err)
	}
	if basket == nil {
		return nil, ErrBasketNotFound
	}
	order, err := s.orders.GetOrCreateActive(ctx, owner, basket.ID)
	if err != nil {
		return nil, fmt.Errorf("get or create order: %w", err)
	}
	return s.reload(ctx, order.ID)
}

func (s *CheckoutService) reload(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *CheckoutService) byStatus(ctx context.Context, owner repositories.Owner, status string) (*models.Order, error) {
	order, err := s.orders.FindByStatus(ctx, owner, status)
	if err != nil {
		return nil, fmt.Errorf("find %s order: %w", status, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.reload(ctx, order.ID)
}

func (s *CheckoutService) Active(ctx context.Context, owner repositories.Owner) (*models.Order, error) {
	return s.byStatus(ctx, owner, models.OrderStatusActive)
}

func (s *CheckoutService) Pending(ctx context.Context, owner repositories.Owner) (*models.Order, error) {
	return s.byStatus(ctx, owner, models.OrderStatusPending)
}

func (s *CheckoutService) List(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

type ActiveUpdate struct {
	Step      *int    `json:"step"`
	PromoCode *string `json:"promocode"`
}

// UpdateActive moves the checkout step and applies a promo code to the
// basket lines.
func (s *CheckoutService) UpdateActive(ctx context.Context, owner repositories.Owner, in ActiveUpdate) (*models.Order, error) {
	order, err := s.Active(ctx, owner)
	if err != nil {
		return nil, err
	}

	if in.Step != nil {
		if *in.Step < 1 {
			return nil, models.FieldErrors{"step": "Ensure this value is greater than or equal to 1."}
		}
		order.Step = *in.Step
	}

	var promo *models.PromoCode
	if in.PromoCode != nil && strings.TrimSpace(*in.PromoCode) != "" {
		promo, err = s.promos.FindByCode(ctx, strings.TrimSpace(*in.PromoCode))
		if err != nil {
			return nil, fmt.Errorf("find promo code: %w", err)
		}
		if promo == nil || !promo.IsValidOn(s.now()) {
			return nil, models.FieldErrors{"promocode": "Promocode is not valid."}
		}
		if order.Basket == nil {
			return nil, ErrBasketNotFound
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if promo != nil {
			total := ApplyPromo(order.Basket.Products, promo)
			if err := s.baskets.SaveLines(ctx, tx, order.Basket.Products); err != nil {
				return fmt.Errorf("save basket lines: %w", err)
			}
			order.Promo = true
			order.PromoCode = promo.Code
			order.Price = decimal.NewNullDecimal(total)
			zap.L().Info("CheckoutService.UpdateActive: promo code applied",
				zap.String("order_id", order.ID), zap.String("code", promo.Code), zap.String("price", total.String()))

			if s.cfg.Rates.Refresh(order, checkoutTotal(order, order.Basket.Products)) {
				if err := s.orders.SaveDeliveryInfo(ctx, tx, order.DeliveryInfo); err != nil {
					return fmt.Errorf("save delivery info: %w", err)
				}
			}
		}
		return s.orders.Save(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, order.ID)
}

// ToPending submits the active order: it fixes the price, closes the basket
// and notifies the shop and the customer.
func (s *CheckoutService) ToPending(ctx context.Context, owner repositories.Owner) (*models.Order, error) {
	order, err := s.Active(ctx, owner)
	if err != nil {
		return nil, err
	}

	if !order.Price.Valid {
		var lines []models.BasketProduct
		if order.Basket != nil {
			lines = order.Basket.Products
		}
		order.Price = decimal.NewNullDecimal(LinesTotal(lines))
	}
	now := s.now()
	order.Status = models.OrderStatusPending
	order.Received = &now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orders.Save(ctx, tx, order); err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		return s.baskets.Deactivate(ctx, tx, order.BasketID)
	})
	if err != nil {
		return nil, err
	}

	order, err = s.reload(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	zap.L().Info("CheckoutService.ToPending: order submitted", zap.String("order_id", order.ID), zap.String("price", order.Price.Decimal.String()))

	adminURL := strings.TrimRight(s.cfg.AppURL, "/") + "/admin/orders/" + order.ID + "/print"
	notifyAll(s.mailer, s.cfg.AdminEmails, "Новый заказ "+order.ID, BuildOrderAdminEmailBody(order, adminURL))
	notifyAll(s.mailer, []string{order.CustomerEmail()}, "Ваш заказ принят", BuildOrderCustomerEmailBody(order))
	return order, nil
}

func (s *CheckoutService) CreatePrivateInfo(ctx context.Context, owner repositories.Owner, info *models.OrderPrivateInfo) (*models.Order, error) {
	order, err := s.Active(ctx, owner)
	if err != nil {
		return nil, err
	}
	if order.PrivateInfo != nil {
		return nil, ErrPrivateInfoExists
	}
	info.ID = ""
	return s.savePrivateInfo(ctx, order, info)
}

// UpdatePrivateInfo loads the linked record and lets apply overwrite the
// fields present in the request.
func (s *CheckoutService) UpdatePrivateInfo(ctx context.Context, owner repositories.Owner, apply func(*models.OrderPrivateInfo) error) (*models.Order, error) {
	order, err := s.Active(ctx, owner)
	if err != nil {
		return nil, err
	}
	if order.PrivateInfo == nil {
		return nil, ErrPrivateInfoNotFound
	}
	info := *order.PrivateInfo
	if err := apply(&info); err != nil {
		return nil, err
	}
	info.ID = order.PrivateInfo.ID
	return s.savePrivateInfo(ctx, order, &info)
}

func (s *CheckoutService) savePrivateInfo(ctx context.Context, order *models.Order, info *models.OrderPrivateInfo) (*models.Order, error) {
	info.OrderID = order.ID
	if info.ClientType == "" {
		info.ClientType = models.ClientIndividual
	}
	if errs := info.Validate(); len(errs) > 0 {
		return nil, errs
	}
	if err := s.orders.SavePrivateInfo(ctx, info); err != nil {
		return nil, fmt.Errorf("save private info: %w", err)
	}
	return s.reload(ctx, order.ID)
}

func (s *CheckoutService) CreateDeliveryInfo(ctx context.Context, owner repositories.Owner, info *models.OrderDeliveryInfo) (*models.Order, error) {
	order, err := s.Active(ctx, owner)
	if err != nil {
		return nil, err
	}
	if order.DeliveryInfo != nil {
		return nil, ErrDeliveryInfoExists
	}
	info.ID = ""
	return s.saveDeliveryInfo(ctx, order, info)
}

func (s *CheckoutService) UpdateDeliveryInfo(ctx context.Context, owner repositories.Owner, apply func(*models.OrderDeliveryInfo) error) (*models.Order, error) {
	order, err := s.Active(ctx, owner)
	if err != nil {
		return nil, err
	}
	if order.DeliveryInfo == nil {
		return nil, ErrDeliveryNotFound
	}
	info := *order.DeliveryInfo
	if err := apply(&info); err != nil {
		return nil, err
	}
	info.ID = order.DeliveryInfo.ID
	return s.saveDeliveryInfo(ctx, order, &info)
}

func (s *CheckoutService) saveDeliveryInfo(ctx context.Context, order *models.Order, info *models.OrderDeliveryInfo) (*models.Order, error) {
	info.OrderID = order.ID
	info.ToCity = nil
	info.FromAddress = nil
	if info.Type == "" {
		info.Type = models.DeliveryPickup
	}
	if errs := info.Validate(); len(errs) > 0 {
		return nil, errs
	}

	var lines []models.BasketProduct
	if order.Basket != nil {
		lines = order.Basket.Products
	}
	info.Price = s.cfg.Rates.Price(info, checkoutTotal(order, lines))

	if err := s.orders.SaveDeliveryInfo(ctx, nil, info); err != nil {
		return nil, fmt.Errorf("save delivery info: %w", err)
	}
	return s.reload(ctx, order.ID)
}

func (s *CheckoutService) CreatePaymentInfo(ctx context.Context, owner repositories.Owner, info *models.OrderPaymentInfo) (*models.Order, error) {
	order, err := s.Active(ctx, owner)
	if err != nil {
		return nil, err
	}
	if order.PaymentInfo != nil {
		return nil, ErrPaymentInfoExists
	}
	info.ID = ""
	return s.savePaymentInfo(ctx, order, info)
}

func (s *CheckoutService) UpdatePaymentInfo(ctx context.Context, owner repositories.Owner, apply func(*models.OrderPaymentInfo) error) (*models.Order, error) {
	order, err := s.Active(ctx, owner)
	if err != nil {
		return nil, err
	}
	if order.PaymentInfo == nil {
		return nil, ErrPaymentNotFound
	}
	info := *order.PaymentInfo
	if err := apply(&info); err != nil {
		return nil, err
	}
	info.ID = order.PaymentInfo.ID
	return s.savePaymentInfo(ctx, order, &info)
}

func (s *CheckoutService) savePaymentInfo(ctx context.Context, order *models.Order, info *models.OrderPaymentInfo) (*models.Order, error) {
	info.OrderID = order.ID
	info.B2P = nil
	if info.Type == "" {
		info.Type = models.PaymentCard
	}
	if errs := info.Validate(); len(errs) > 0 {
		return nil, errs
	}
	if err := s.orders.SavePaymentInfo(ctx, info); err != nil {
		return nil, fmt.Errorf("save payment info: %w", err)
	}
	return s.reload(ctx, order.ID)
}
