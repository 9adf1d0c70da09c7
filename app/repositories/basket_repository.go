package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/klioshop/klio/app/models"
	"gorm.io/gorm"
)

// Owner identifies who a basket or order belongs to: an authenticated user
// or, failing that, an anonymous session key.
type Owner struct {
	UserID     string
	SessionKey string
}

func (o Owner) IsZero() bool {
	return o.UserID == "" && o.SessionKey == ""
}

func (o Owner) scope(db *gorm.DB) *gorm.DB {
	if o.UserID != "" {
		return db.Where("user_id = ?", o.UserID)
	}
	return db.Where("user_id IS NULL AND session_key = ?", o.SessionKey)
}

func (o Owner) apply(userID, sessionKey **string) {
	if o.UserID != "" {
		id := o.UserID
		*userID = &id
		*sessionKey = nil
		return
	}
	key := o.SessionKey
	*userID = nil
	*sessionKey = &key
}

// BasketLinePreloads loads what the basket payload and pricing need.
func BasketLinePreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Products.Product").
		Preload("Products.Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Products.Product.Category").
		Preload("Products.Product.Unit").
		Preload("Products.Product.Tags").
		Preload("Products.Product.Parent").
		Preload("Products.Product.Parent.Category").
		Preload("Products.Product.Parent.Unit").
		Preload("Products.Product.Parent.Tags")
}

type BasketRepository interface {
	FindActive(ctx context.Context, owner Owner) (*models.Basket, error)
	FindByID(ctx context.Context, id string) (*models.Basket, error)
	Create(ctx context.Context, owner Owner) (*models.Basket, error)
	Deactivate(ctx context.Context, tx *gorm.DB, basketID string) error
	Touch(ctx context.Context, basketID string) error
	AssignUser(ctx context.Context, basketID, userID string) error

	FindLine(ctx context.Context, basketID, productID string) (*models.BasketProduct, error)
	SaveLine(ctx context.Context, line *models.BasketProduct) error
	SaveLines(ctx context.Context, tx *gorm.DB, lines []models.BasketProduct) error
	DeleteLine(ctx context.Context, line *models.BasketProduct) error
}

type gormBasketRepository struct {
	db *gorm.DB
}

func NewBasketRepository(db *gorm.DB) BasketRepository {
	return &gormBasketRepository{db: db}
}

func (r *gormBasketRepository) FindActive(ctx context.Context, owner Owner) (*models.Basket, error) {
	if owner.IsZero() {
		return nil, nil
	}
	var basket models.Basket
	err := BasketLinePreloads(owner.scope(r.db.WithContext(ctx))).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&basket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &basket, nil
}

func (r *gormBasketRepository) FindByID(ctx context.Context, id string) (*models.Basket, error) {
	var basket models.Basket
	err := BasketLinePreloads(r.db.WithContext(ctx)).First(&basket, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &basket, nil
}

// Create makes a new active basket unless the owner already has one, in
// which case the existing basket is returned.
func (r *gormBasketRepository) Create(ctx context.Context, owner Owner) (*models.Basket, error) {
	var created *models.Basket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Basket
		err := owner.scope(tx).Where("is_active = ?", true).First(&existing).Error
		if err == nil {
			created = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		basket := &models.Basket{IsActive: true}
		owner.apply(&basket.UserID, &basket.SessionKey)
		if err := tx.Create(basket).Error; err != nil {
			return err
		}
		created = basket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *gormBasketRepository) Deactivate(ctx context.Context, tx *gorm.DB, basketID string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Model(&models.Basket{}).Where("id = ?", basketID).Update("is_active", false).Error
}

func (r *gormBasketRepository) Touch(ctx context.Context, basketID string) error {
	return r.db.WithContext(ctx).Model(&models.Basket{}).Where("id = ?", basketID).Update("updated_at", time.Now()).Error
}

func (r *gormBasketRepository) AssignUser(ctx context.Context, basketID, userID string) error {
	return r.db.WithContext(ctx).Model(&models.Basket{}).Where("id = ?", basketID).
		Updates(map[string]interface{}{"user_id": userID, "session_key": nil}).Error
}

func (r *gormBasketRepository) FindLine(ctx context.Context, basketID, productID string) (*models.BasketProduct, error) {
	var line models.BasketProduct
	err := r.db.WithContext(ctx).First(&line, "basket_id = ? AND product_id = ?", basketID, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &line, nil
}

func (r *gormBasketRepository) SaveLine(ctx context.Context, line *models.BasketProduct) error {
	return r.db.WithContext(ctx).Omit("Product").Save(line).Error
}

func (r *gormBasketRepository) SaveLines(ctx context.Context, tx *gorm.DB, lines []models.BasketProduct) error {
	if tx == nil {
		tx = r.db
	}
	for i := range lines {
		if err := tx.WithContext(ctx).Omit("Product").Save(&lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *gormBasketRepository) DeleteLine(ctx context.Context, line *models.BasketProduct) error {
	return r.db.WithContext(ctx).Delete(line).Error
}
