package repositories

import (
	"context"
	"errors"

	"github.com/klioshop/klio/app/models"
	"gorm.io/gorm"
)

type CategoryRepositoryImpl interface {
	ListActive(ctx context.Context) ([]models.Category, error)
	ListAll(ctx context.Context) ([]models.Category, error)
	MainPage(ctx context.Context, limit int) ([]models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Ancestors(ctx context.Context, category *models.Category) ([]models.Category, error)
	Search(ctx context.Context, text string) ([]models.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepositoryImpl {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Where("activity = ?", true).Order("sort_order, name").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) ListAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("sort_order, name").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) MainPage(ctx context.Context, limit int) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("activity = ? AND on_main = ?", true, true).
		Order("sort_order, name").
		Limit(limit).
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) first(db *gorm.DB) (*models.Category, error) {
	var category models.Category
	if err := db.First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.first(r.db.WithContext(ctx).Where("slug = ? AND activity = ?", slug, true))
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	return r.first(r.db.WithContext(ctx).Where("name = ?", name))
}

// Ancestors returns the chain from the root down to category itself.
func (r *categoryRepository) Ancestors(ctx context.Context, category *models.Category) ([]models.Category, error) {
	chain := []models.Category{*category}
	seen := map[string]bool{category.ID: true}

	current := category
	for current.ParentID != nil {
		parent, err := r.FindByID(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append([]models.Category{*parent}, chain...)
		current = parent
	}
	return chain, nil
}

func (r *categoryRepository) Search(ctx context.Context, text string) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Where("activity = ?", true)
	if isPostgres(r.db) {
		query = query.Where("similarity(name, ?) > 0.15", text).Clauses(similarityOrder("name", text))
	} else {
		query = query.Where("LOWER(name) LIKE ?", likePattern(text)).Order("name")
	}

	var categories []models.Category
	err := query.Find(&categories).Error
	return categories, err
}

type BrandRepositoryImpl interface {
	ListActive(ctx context.Context) ([]models.Brand, error)
	FindBySlug(ctx context.Context, slug string) (*models.Brand, error)
}

type brandRepository struct {
	db *gorm.DB
}

func NewBrandRepository(db *gorm.DB) BrandRepositoryImpl {
	return &brandRepository{db: db}
}

func (r *brandRepository) ListActive(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	err := r.db.WithContext(ctx).Where("activity = ?", true).Order("sort_order, name").Find(&brands).Error
	return brands, err
}

func (r *brandRepository) FindBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	var brand models.Brand
	err := r.db.WithContext(ctx).First(&brand, "slug = ? AND activity = ?", slug, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &brand, nil
}
