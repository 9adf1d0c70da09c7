package repositories

import (
	"context"
	"errors"

	"github.com/klioshop/klio/app/models"
	"gorm.io/gorm"
)

type OrderFilter struct {
	Status string
	IDs    []string
}

type OrderRepository interface {
	FindByStatus(ctx context.Context, owner Owner, status string) (*models.Order, error)
	FindForOwner(ctx context.Context, owner Owner, id string) (*models.Order, error)
	FindByID(ctx context.Context, id string) (*models.Order, error)
	GetOrCreateActive(ctx context.Context, owner Owner, basketID string) (*models.Order, error)
	Save(ctx context.Context, tx *gorm.DB, order *models.Order) error
	UpdateStatus(ctx context.Context, orderID, status string) error
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID string) error
	AssignUserByBasket(ctx context.Context, basketID, userID string) error
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)

	SavePrivateInfo(ctx context.Context, info *models.OrderPrivateInfo) error
	SaveDeliveryInfo(ctx context.Context, tx *gorm.DB, info *models.OrderDeliveryInfo) error
	SavePaymentInfo(ctx context.Context, info *models.OrderPaymentInfo) error
	SaveB2PInfo(ctx context.Context, tx *gorm.DB, info *models.OrderPaymentB2PInfo) error
}

type gormOrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepository{db: db}
}

func orderPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("PrivateInfo").
		Preload("DeliveryInfo").
		Preload("DeliveryInfo.ToCity").
		Preload("DeliveryInfo.FromAddress").
		Preload("PaymentInfo").
		Preload("PaymentInfo.B2P")
}

func withBasket(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Basket").
		Preload("Basket.Products", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Basket.Products.Product").
		Preload("Basket.Products.Product.Tags").
		Preload("Basket.Products.Product.Parent").
		Preload("Basket.Products.Product.Parent.Tags")
}

func firstOrder(db *gorm.DB) (*models.Order, error) {
	var order models.Order
	if err := db.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepository) FindByStatus(ctx context.Context, owner Owner, status string) (*models.Order, error) {
	if owner.IsZero() {
		return nil, nil
	}
	return firstOrder(orderPreloads(owner.scope(r.db.WithContext(ctx))).
		Where("status = ?", status).
		Order("created_at DESC"))
}

func (r *gormOrderRepository) FindForOwner(ctx context.Context, owner Owner, id string) (*models.Order, error) {
	if owner.IsZero() {
		return nil, nil
	}
	return firstOrder(withBasket(orderPreloads(owner.scope(r.db.WithContext(ctx)))).Where("id = ?", id))
}

func (r *gormOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	return firstOrder(withBasket(orderPreloads(r.db.WithContext(ctx))).Where("id = ?", id))
}

// GetOrCreateActive returns the active order tied to basketID, creating it
// for owner when missing.
func (r *gormOrderRepository) GetOrCreateActive(ctx context.Context, owner Owner, basketID string) (*models.Order, error) {
	var result *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Where("basket_id = ? AND status = ?", basketID, models.OrderStatusActive).First(&order).Error
		if err == nil {
			result = &order
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		order = models.Order{BasketID: basketID, Status: models.OrderStatusActive, Step: 1}
		owner.apply(&order.UserID, &order.SessionKey)
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		result = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *gormOrderRepository) Save(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Omit("User", "Basket", "PrivateInfo", "DeliveryInfo", "PaymentInfo").
		Save(order).Error
}

func (r *gormOrderRepository) UpdateStatus(ctx context.Context, orderID, status string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error
}

func (r *gormOrderRepository) MarkPaid(ctx context.Context, tx *gorm.DB, orderID string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("is_paid", true).Error
}

func (r *gormOrderRepository) AssignUserByBasket(ctx context.Context, basketID, userID string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("basket_id = ?", basketID).
		Updates(map[string]interface{}{"user_id": userID, "session_key": nil}).Error
}

func (r *gormOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := orderPreloads(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *gormOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := withBasket(orderPreloads(r.db.WithContext(ctx)))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}

	var orders []models.Order
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *gormOrderRepository) SavePrivateInfo(ctx context.Context, info *models.OrderPrivateInfo) error {
	return r.db.WithContext(ctx).Save(info).Error
}

func (r *gormOrderRepository) SaveDeliveryInfo(ctx context.Context, tx *gorm.DB, info *models.OrderDeliveryInfo) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Omit("ToCity", "FromAddress").Save(info).Error
}

func (r *gormOrderRepository) SavePaymentInfo(ctx context.Context, info *models.OrderPaymentInfo) error {
	return r.db.WithContext(ctx).Omit("B2P").Save(info).Error
}

func (r *gormOrderRepository) SaveB2PInfo(ctx context.Context, tx *gorm.DB, info *models.OrderPaymentB2PInfo) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(info).Error
}
