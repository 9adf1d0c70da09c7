package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/klioshop/klio/app/models"
	"gorm.io/gorm"
)

// PublicationKind picks the table a publication query runs against.
type PublicationKind string

const (
	KindArticle PublicationKind = "articles"
	KindNews    PublicationKind = "news"
)

type ContentRepository interface {
	Articles(ctx context.Context, now time.Time) ([]models.Article, error)
	ArticleBySlug(ctx context.Context, slug string, now time.Time) (*models.Article, error)
	News(ctx context.Context, now time.Time) ([]models.News, error)
	NewsBySlug(ctx context.Context, slug string, now time.Time) (*models.News, error)
	SearchArticles(ctx context.Context, text string, tags []string, now time.Time) ([]models.Article, error)
	SearchNews(ctx context.Context, text string, tags []string, now time.Time) ([]models.News, error)

	Banners(ctx context.Context, now time.Time) ([]models.Banner, error)
	BannerByID(ctx context.Context, id string) (*models.Banner, error)
	PageBySlug(ctx context.Context, slug string) (*models.Page, error)
	ActiveSettings(ctx context.Context) (*models.SiteSettings, error)
	Menus(ctx context.Context) ([]models.Menu, error)
	Cities(ctx context.Context) ([]models.City, error)
	FindCity(ctx context.Context, id string) (*models.City, error)

	SubscriberExists(ctx context.Context, email string) (bool, error)
	CreateSubscriber(ctx context.Context, s *models.SubscriberInfo) error
	CreateCallback(ctx context.Context, c *models.CallbackInfo) error
}

type gormContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &gormContentRepository{db: db}
}

func visible(db *gorm.DB, now time.Time) *gorm.DB {
	return db.
		Where("activity = ?", true).
		Where("(start_date IS NULL OR start_date <= ?)", now).
		Where("(deadline IS NULL OR deadline >= ?)", now)
}

func (r *gormContentRepository) Articles(ctx context.Context, now time.Time) ([]models.Article, error) {
	var articles []models.Article
	err := visible(r.db.WithContext(ctx).Preload("Tags"), now).Order("date DESC").Find(&articles).Error
	return articles, err
}

func (r *gormContentRepository) ArticleBySlug(ctx context.Context, slug string, now time.Time) (*models.Article, error) {
	var article models.Article
	err := visible(r.db.WithContext(ctx).Preload("Tags"), now).First(&article, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &article, nil
}

func (r *gormContentRepository) News(ctx context.Context, now time.Time) ([]models.News, error) {
	var news []models.News
	err := visible(r.db.WithContext(ctx).Preload("Tags"), now).Order("date DESC").Find(&news).Error
	return news, err
}

func (r *gormContentRepository) NewsBySlug(ctx context.Context, slug string, now time.Time) (*models.News, error) {
	var news models.News
	err := visible(r.db.WithContext(ctx).Preload("Tags"), now).First(&news, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &news, nil
}

func (r *gormContentRepository) searchPublications(ctx context.Context, kind PublicationKind, text string, tags []string, now time.Time) *gorm.DB {
	table := string(kind)
	query := visible(r.db.WithContext(ctx).Preload("Tags"), now)
	if text != "" {
		if isPostgres(r.db) {
			query = query.Where("similarity(title, ?) > 0.15", text)
		} else {
			query = query.Where("LOWER(title) LIKE ?", likePattern(text))
		}
	}
	if len(tags) > 0 {
		joinTable := "article_tags"
		joinColumn := "article_id"
		if kind == KindNews {
			joinTable = "news_tags"
			joinColumn = "news_id"
		}
		tagged := r.db.Table(joinTable+" AS jt").
			Select("jt."+joinColumn).
			Joins("JOIN tags AS t ON t.id = jt.tag_id").
			Where("t.name IN ?", tags)
		query = query.Where(table+".id IN (?)", tagged)
	}
	return query.Order("title")
}

func (r *gormContentRepository) SearchArticles(ctx context.Context, text string, tags []string, now time.Time) ([]models.Article, error) {
	var articles []models.Article
	err := r.searchPublications(ctx, KindArticle, text, tags, now).Find(&articles).Error
	return articles, err
}

func (r *gormContentRepository) SearchNews(ctx context.Context, text string, tags []string, now time.Time) ([]models.News, error) {
	var news []models.News
	err := r.searchPublications(ctx, KindNews, text, tags, now).Find(&news).Error
	return news, err
}

func (r *gormContentRepository) Banners(ctx context.Context, now time.Time) ([]models.Banner, error) {
	var banners []models.Banner
	err := visible(r.db.WithContext(ctx), now).Order("sort_order").Find(&banners).Error
	return banners, err
}

func (r *gormContentRepository) BannerByID(ctx context.Context, id string) (*models.Banner, error) {
	var banner models.Banner
	err := r.db.WithContext(ctx).First(&banner, "id = ? AND activity = ?", id, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &banner, nil
}

func (r *gormContentRepository) PageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var page models.Page
	err := r.db.WithContext(ctx).First(&page, "slug = ? AND activity = ?", slug, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &page, nil
}

func (r *gormContentRepository) ActiveSettings(ctx context.Context) (*models.SiteSettings, error) {
	var settings models.SiteSettings
	err := r.db.WithContext(ctx).First(&settings, "activity = ?", true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// Menus loads active menus with all of their active items, flat. Callers
// build the tree.
func (r *gormContentRepository) Menus(ctx context.Context) ([]models.Menu, error) {
	var menus []models.Menu
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("activity = ?", true).Order("sort_order, name")
		}).
		Where("activity = ?", true).
		Order("position").
		Find(&menus).Error
	return menus, err
}

func (r *gormContentRepository) Cities(ctx context.Context) ([]models.City, error) {
	var cities []models.City
	err := r.db.WithContext(ctx).Where("activity = ?", true).Order("name").Find(&cities).Error
	return cities, err
}

func (r *gormContentRepository) FindCity(ctx context.Context, id string) (*models.City, error) {
	var city models.City
	err := r.db.WithContext(ctx).First(&city, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &city, nil
}

func (r *gormContentRepository) SubscriberExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SubscriberInfo{}).Where("LOWER(email) = ?", strings.ToLower(email)).Count(&count).Error
	return count > 0, err
}

func (r *gormContentRepository) CreateSubscriber(ctx context.Context, s *models.SubscriberInfo) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *gormContentRepository) CreateCallback(ctx context.Context, c *models.CallbackInfo) error {
	return r.db.WithContext(ctx).Create(c).Error
}
