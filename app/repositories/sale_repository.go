package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/klioshop/klio/app/models"
	"gorm.io/gorm"
)

type SpecialRepository interface {
	ListActive(ctx context.Context) ([]models.Special, error)
	FindBySlug(ctx context.Context, slug string) (*models.Special, error)
}

type gormSpecialRepository struct {
	db *gorm.DB
}

func NewSpecialRepository(db *gorm.DB) SpecialRepository {
	return &gormSpecialRepository{db: db}
}

func specialPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Categories").
		Preload("Tags").
		Preload("Products")
}

// ListActive returns active specials. The date window is left to callers so
// the check runs against a single clock.
func (r *gormSpecialRepository) ListActive(ctx context.Context) ([]models.Special, error) {
	var specials []models.Special
	err := specialPreloads(r.db.WithContext(ctx)).
		Where("activity = ?", true).
		Order("date DESC").
		Find(&specials).Error
	return specials, err
}

func (r *gormSpecialRepository) FindBySlug(ctx context.Context, slug string) (*models.Special, error) {
	var special models.Special
	err := specialPreloads(r.db.WithContext(ctx)).First(&special, "slug = ? AND activity = ?", slug, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &special, nil
}

type PromoCodeRepository interface {
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
}

type gormPromoCodeRepository struct {
	db *gorm.DB
}

func NewPromoCodeRepository(db *gorm.DB) PromoCodeRepository {
	return &gormPromoCodeRepository{db: db}
}

func (r *gormPromoCodeRepository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	var promo models.PromoCode
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Preload("Products").
		Preload("Tags").
		First(&promo, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}
