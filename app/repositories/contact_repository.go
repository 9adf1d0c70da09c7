package repositories

import (
	"context"
	"errors"

	"github.com/klioshop/klio/app/models"
	"gorm.io/gorm"
)

type ContactRepository interface {
	ListActive(ctx context.Context) ([]models.Contact, error)
	FindByID(ctx context.Context, id string) (*models.Contact, error)
	Socials(ctx context.Context) ([]models.SocialNet, error)
}

type gormContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &gormContactRepository{db: db}
}

func contactPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Country").
		Preload("City").
		Preload("Phones", "activity = ?", true, func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Phones.Phone").
		Preload("Hours")
}

func (r *gormContactRepository) ListActive(ctx context.Context) ([]models.Contact, error) {
	var contacts []models.Contact
	err := contactPreloads(r.db.WithContext(ctx)).Where("activity = ?", true).Order("name").Find(&contacts).Error
	return contacts, err
}

func (r *gormContactRepository) FindByID(ctx context.Context, id string) (*models.Contact, error) {
	var contact models.Contact
	err := contactPreloads(r.db.WithContext(ctx)).First(&contact, "id = ? AND activity = ?", id, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (r *gormContactRepository) Socials(ctx context.Context) ([]models.SocialNet, error) {
	var socials []models.SocialNet
	err := r.db.WithContext(ctx).Where("activity = ?", true).Order("name").Find(&socials).Error
	return socials, err
}

type TagRepository interface {
	ListActive(ctx context.Context) ([]models.Tag, error)
	FindByID(ctx context.Context, id string) (*models.Tag, error)
}

type gormTagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &gormTagRepository{db: db}
}

func (r *gormTagRepository) ListActive(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).Where("activity = ?", true).Order("name").Find(&tags).Error
	return tags, err
}

func (r *gormTagRepository) FindByID(ctx context.Context, id string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).First(&tag, "id = ? AND activity = ?", id, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}
