package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/klioshop/klio/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepositoryImpl interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	Activate(ctx context.Context, userID string) error
	List(ctx context.Context, staffOnly bool) ([]models.User, error)

	Favorites(ctx context.Context, userID string) ([]models.Product, error)
	AddFavorite(ctx context.Context, userID, productID string) error
	RemoveFavorite(ctx context.Context, userID, productID string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepositoryImpl {
	return &userRepository{db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Phones").First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Phones", "Password").Save(user).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password", passwordHash).Error
}

func (r *userRepository) Activate(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("is_active", true).Error
}

func (r *userRepository) List(ctx context.Context, staffOnly bool) ([]models.User, error) {
	query := r.db.WithContext(ctx).Preload("Phones")
	if staffOnly {
		query = query.Where("is_staff = ?", true)
	}
	var users []models.User
	err := query.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *userRepository) Favorites(ctx context.Context, userID string) ([]models.Product, error) {
	var favorites []models.UserProduct
	err := r.db.WithContext(ctx).
		Preload("Product", "activity = ?", true).
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Product.Category").Preload("Product.Unit").Preload("Product.Tags").
		Preload("Product.Parent.Category").Preload("Product.Parent.Unit").Preload("Product.Parent.Tags").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(favorites))
	for _, f := range favorites {
		if f.Product.ID != "" {
			products = append(products, f.Product)
		}
	}
	return products, nil
}

func (r *userRepository) AddFavorite(ctx context.Context, userID, productID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserProduct{UserID: userID, ProductID: productID}).Error
}

func (r *userRepository) RemoveFavorite(ctx context.Context, userID, productID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.UserProduct{})
	return res.RowsAffected > 0, res.Error
}
