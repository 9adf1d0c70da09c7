package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/klioshop/klio/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	PropertyFilterBoolean = "b"
	PropertyFilterText    = "t"
	PropertyFilterDigit   = "d"
)

// PropertyFilter narrows a listing by a dynamic product property. Kind is
// one of the PropertyFilter* suffixes used in query keys (slug_b, slug_t,
// slug_d).
type PropertyFilter struct {
	Slug     string
	Kind     string
	Bool     bool
	Values   []string
	Min, Max float64
}

// SpecialScope selects the products a special reaches.
type SpecialScope struct {
	ProductIDs  []string
	CategoryIDs []string
	TagIDs      []string
}

type ProductQuery struct {
	Kinds       []string
	CategoryIDs []string
	BrandID     string
	InStock     bool
	Properties  []PropertyFilter
	Text        string
	// ArtSubstring matches Text against art as a plain substring instead
	// of by trigram similarity.
	ArtSubstring  bool
	Article       string
	Tags          []string
	Special       *SpecialScope
	OnMainSpecial bool
	NewSince      *time.Time
	ActiveTree    bool

	SortBy    string
	Direction string
	Offset    int
	Limit     int
}

type ProductRepositoryImpl interface {
	List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error)
	IDs(ctx context.Context, q ProductQuery) ([]string, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindActiveByID(ctx context.Context, id string) (*models.Product, error)
	FindInCategory(ctx context.Context, categoryID, slug string) (*models.Product, error)
	FindByArt(ctx context.Context, art int64) (*models.Product, error)
	Recommended(ctx context.Context, productID string) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Product, error)

	Create(ctx context.Context, tx *gorm.DB, product *models.Product) error
	Update(ctx context.Context, tx *gorm.DB, product *models.Product) error
	Delete(ctx context.Context, id string) error
	UpdateCategory(ctx context.Context, art int64, categoryID string) (bool, error)

	FindProductType(ctx context.Context, slug string) (*models.ProductType, error)
	Properties(ctx context.Context, productTypeID string) ([]models.ProductProperty, error)
	FindPropertyBySlug(ctx context.Context, slug string) (*models.ProductProperty, error)
	Values(ctx context.Context, productID string) ([]models.ProductPropertyValue, error)
	SaveValue(ctx context.Context, tx *gorm.DB, value *models.ProductPropertyValue) error
	PropertiesFor(ctx context.Context, productIDs []string) ([]models.ProductProperty, error)
	TextOptions(ctx context.Context, propertyID string, productIDs []string) ([]string, error)
	DigitRange(ctx context.Context, property models.ProductProperty, productIDs []string) (*float64, *float64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepositoryImpl {
	return &productRepository{db: db}
}

// ProductListPreloads loads everything a product list item renders.
func ProductListPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", "activity = ?", true, func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Category").
		Preload("Unit").
		Preload("Brand").
		Preload("Tags").
		Preload("Parent").
		Preload("Parent.Category").
		Preload("Parent.Unit").
		Preload("Parent.Brand").
		Preload("Parent.Tags")
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

func artAsText(db *gorm.DB) string {
	if db.Dialector.Name() == "mysql" {
		return "CAST(products.art AS CHAR)"
	}
	return "CAST(products.art AS TEXT)"
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

func (r *productRepository) filtered(ctx context.Context, q ProductQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.Product{}).Where("products.activity = ?", true)

	if len(q.Kinds) > 0 {
		db = db.Where("products.kind IN ?", q.Kinds)
	}
	if len(q.CategoryIDs) > 0 {
		db = db.Where(
			"(products.category_id IN ? OR products.parent_id IN (SELECT p2.id FROM products p2 WHERE p2.category_id IN ?))",
			q.CategoryIDs, q.CategoryIDs,
		)
	}
	if q.ActiveTree {
		active := r.db.Model(&models.Category{}).Select("id").Where("activity = ?", true)
		db = db.Where(
			"(products.category_id IN (?) OR products.parent_id IN (SELECT p3.id FROM products p3 WHERE p3.category_id IN (?)))",
			active, active,
		)
	}
	if q.BrandID != "" {
		db = db.Where(
			"(products.brand_id = ? OR products.parent_id IN (SELECT p4.id FROM products p4 WHERE p4.brand_id = ?))",
			q.BrandID, q.BrandID,
		)
	}
	if q.InStock {
		db = db.Where("products.in_stock > 0")
	}

	for _, f := range q.Properties {
		sub := r.db.Table("product_property_values AS v").
			Select("v.product_id").
			Joins("JOIN product_properties AS pp ON pp.id = v.property_id").
			Where("pp.slug = ?", f.Slug)
		switch f.Kind {
		case PropertyFilterBoolean:
			sub = sub.Where("v.value_boolean = ?", f.Bool)
		case PropertyFilterText:
			sub = sub.Where("v.value_text IN ?", f.Values)
		case PropertyFilterDigit:
			sub = sub.Where(
				"((v.value_integer >= ? AND v.value_integer <= ?) OR (v.value_float >= ? AND v.value_float <= ?))",
				f.Min, f.Max, f.Min, f.Max,
			)
		default:
			continue
		}
		db = db.Where("products.id IN (?)", sub)
	}

	if text := strings.TrimSpace(q.Text); text != "" {
		if isPostgres(r.db) && q.ArtSubstring {
			db = db.Where("("+artAsText(r.db)+" LIKE ? OR similarity(products.name, ?) > 0.15)", likePattern(text), text)
		} else if isPostgres(r.db) {
			db = db.Where("(similarity("+artAsText(r.db)+", ?) > 0.3 OR similarity(products.name, ?) > 0.15)", text, text)
		} else {
			db = db.Where("("+artAsText(r.db)+" LIKE ? OR LOWER(products.name) LIKE ?)", likePattern(text), likePattern(text))
		}
	}
	if article := strings.TrimSpace(q.Article); article != "" {
		if isPostgres(r.db) {
			db = db.Where("similarity("+artAsText(r.db)+", ?) > 0.7", article)
		} else {
			db = db.Where(artAsText(r.db)+" LIKE ?", likePattern(article))
		}
	}
	if len(q.Tags) > 0 {
		tagged := r.db.Table("product_tags AS pt").
			Select("pt.product_id").
			Joins("JOIN tags AS t ON t.id = pt.tag_id").
			Where("t.name IN ?", q.Tags)
		db = db.Where("products.id IN (?)", tagged)
	}

	if s := q.Special; s != nil {
		tagged := r.db.Table("product_tags AS pt").Select("pt.product_id").Where("pt.tag_id IN ?", nonEmpty(s.TagIDs))
		db = db.Where(
			"(products.id IN ? OR products.category_id IN ? OR products.parent_id IN (SELECT p5.id FROM products p5 WHERE p5.category_id IN ?) OR products.id IN (?))",
			nonEmpty(s.ProductIDs), nonEmpty(s.CategoryIDs), nonEmpty(s.CategoryIDs), tagged,
		)
	}
	if q.OnMainSpecial {
		onMain := r.db.Table("special_products AS sp").
			Select("sp.product_id").
			Joins("JOIN specials AS s ON s.id = sp.special_id").
			Where("sp.on_main = ? AND s.activity = ?", true, true)
		db = db.Where("products.id IN (?)", onMain)
	}
	if q.NewSince != nil {
		db = db.Where(
			"(products.is_new = ? OR (products.is_new = ? AND products.created_at > ?))",
			models.IsNewNew, models.IsNewCalculated, *q.NewSince,
		)
	}

	return db
}

func similarityOrder(column, text string) clause.OrderBy {
	return clause.OrderBy{Expression: clause.Expr{
		SQL:                "similarity(" + column + ", ?) DESC",
		Vars:               []interface{}{text},
		WithoutParentheses: true,
	}}
}

// nonEmpty keeps IN clauses valid on every dialect when a scope is empty.
func nonEmpty(ids []string) []string {
	if len(ids) == 0 {
		return []string{""}
	}
	return ids
}

func productOrder(q ProductQuery) clause.OrderBy {
	desc := strings.EqualFold(q.Direction, "desc")
	var columns []clause.OrderByColumn
	switch q.SortBy {
	case "name":
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Table: "products", Name: "name"}, Desc: desc})
	case "price":
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Table: "products", Name: "price"}, Desc: desc})
	}
	columns = append(columns,
		clause.OrderByColumn{Column: clause.Column{Table: "products", Name: "sort_order"}},
		clause.OrderByColumn{Column: clause.Column{Table: "products", Name: "name"}},
	)
	return clause.OrderBy{Columns: columns}
}

func (r *productRepository) List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := ProductListPreloads(r.filtered(ctx, q)).Clauses(productOrder(q))
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) IDs(ctx context.Context, q ProductQuery) ([]string, error) {
	var ids []string
	err := r.filtered(ctx, q).Pluck("products.id", &ids).Error
	return ids, err
}

func firstProduct(db *gorm.DB) (*models.Product, error) {
	var product models.Product
	if err := db.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func productDetailPreloads(db *gorm.DB) *gorm.DB {
	return ProductListPreloads(db).
		Preload("ProductType").
		Preload("PropertyValues").
		Preload("PropertyValues.Property").
		Preload("PropertyValues.Property.Unit").
		Preload("Parent.PropertyValues")
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	return firstProduct(productDetailPreloads(r.db.WithContext(ctx)).Where("id = ?", id))
}

func (r *productRepository) FindActiveByID(ctx context.Context, id string) (*models.Product, error) {
	return firstProduct(ProductListPreloads(r.db.WithContext(ctx)).Where("id = ? AND activity = ?", id, true))
}

func (r *productRepository) FindInCategory(ctx context.Context, categoryID, slug string) (*models.Product, error) {
	return firstProduct(productDetailPreloads(r.db.WithContext(ctx)).
		Where("slug = ? AND activity = ?", slug, true).
		Where("(category_id = ? OR parent_id IN (SELECT p2.id FROM products p2 WHERE p2.category_id = ?))", categoryID, categoryID))
}

func (r *productRepository) FindByArt(ctx context.Context, art int64) (*models.Product, error) {
	return firstProduct(productDetailPreloads(r.db.WithContext(ctx)).Where("art = ?", art))
}

func (r *productRepository) Recommended(ctx context.Context, productID string) ([]models.Product, error) {
	var products []models.Product
	err := ProductListPreloads(r.db.WithContext(ctx)).
		Joins("JOIN product_recommended pr ON pr.recommended_id = products.id").
		Where("pr.product_id = ?", productID).
		Where("products.activity = ? AND products.kind IN ?", true, []string{models.ProductUnique, models.ProductChild}).
		Order("products.sort_order").
		Find(&products).Error
	return products, err
}

// ListAll returns every product regardless of activity, for back-office
// exports.
func (r *productRepository) ListAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Parent").
		Preload("Category").
		Preload("Brand").
		Preload("Unit").
		Preload("ProductType").
		Order("art, name").
		Find(&products).Error
	return products, err
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepository) Create(ctx context.Context, tx *gorm.DB, product *models.Product) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Omit("Parent", "ProductType", "Category", "Brand", "Unit", "Images", "PropertyValues").
		Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, tx *gorm.DB, product *models.Product) error {
	if tx == nil {
		tx = r.db
	}
	db := tx.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(product).Error; err != nil {
		return err
	}
	if err := db.Model(product).Association("Tags").Replace(product.Tags); err != nil {
		return err
	}
	return db.Model(product).Association("Recommended").Replace(product.Recommended)
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product := &models.Product{ID: id}
		if err := tx.Model(product).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Model(product).Association("Recommended").Clear(); err != nil {
			return err
		}
		for _, dependent := range []interface{}{&models.ProductPropertyValue{}, &models.ProductImage{}, &models.UserProduct{}, &models.SpecialProduct{}} {
			if err := tx.Where("product_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
}

func (r *productRepository) UpdateCategory(ctx context.Context, art int64, categoryID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("art = ? AND kind <> ?", art, models.ProductChild).
		UpdateColumn("category_id", categoryID)
	return res.RowsAffected > 0, res.Error
}

func (r *productRepository) FindProductType(ctx context.Context, slug string) (*models.ProductType, error) {
	var productType models.ProductType
	err := r.db.WithContext(ctx).First(&productType, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &productType, nil
}

func (r *productRepository) Properties(ctx context.Context, productTypeID string) ([]models.ProductProperty, error) {
	var productType models.ProductType
	err := r.db.WithContext(ctx).Preload("Properties").First(&productType, "id = ?", productTypeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return productType.Properties, nil
}

func (r *productRepository) FindPropertyBySlug(ctx context.Context, slug string) (*models.ProductProperty, error) {
	var prop models.ProductProperty
	err := r.db.WithContext(ctx).First(&prop, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &prop, nil
}

func (r *productRepository) Values(ctx context.Context, productID string) ([]models.ProductPropertyValue, error) {
	var values []models.ProductPropertyValue
	err := r.db.WithContext(ctx).Preload("Property").Where("product_id = ?", productID).Find(&values).Error
	return values, err
}

func (r *productRepository) SaveValue(ctx context.Context, tx *gorm.DB, value *models.ProductPropertyValue) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Omit("Property").Save(value).Error
}

// PropertiesFor returns the active properties that have a value row on any
// of productIDs.
func (r *productRepository) PropertiesFor(ctx context.Context, productIDs []string) ([]models.ProductProperty, error) {
	var props []models.ProductProperty
	if len(productIDs) == 0 {
		return props, nil
	}
	used := r.db.Model(&models.ProductPropertyValue{}).Select("property_id").Where("product_id IN ?", productIDs)
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Where("activity = ? AND id IN (?)", true, used).
		Order("name").
		Find(&props).Error
	return props, err
}

func (r *productRepository) TextOptions(ctx context.Context, propertyID string, productIDs []string) ([]string, error) {
	var options []string
	err := r.db.WithContext(ctx).Model(&models.ProductPropertyValue{}).
		Distinct("value_text").
		Where("property_id = ? AND product_id IN ? AND value_text IS NOT NULL AND value_text <> ''", propertyID, nonEmpty(productIDs)).
		Order("value_text").
		Pluck("value_text", &options).Error
	return options, err
}

func (r *productRepository) DigitRange(ctx context.Context, property models.ProductProperty, productIDs []string) (*float64, *float64, error) {
	column := "value_float"
	if property.Type == models.PropertyInteger {
		column = "value_integer"
	}

	var bounds struct {
		MinValue *float64
		MaxValue *float64
	}
	err := r.db.WithContext(ctx).Model(&models.ProductPropertyValue{}).
		Select("MIN("+column+") AS min_value, MAX("+column+") AS max_value").
		Where("property_id = ? AND product_id IN ?", property.ID, nonEmpty(productIDs)).
		Scan(&bounds).Error
	if err != nil {
		return nil, nil, err
	}
	return bounds.MinValue, bounds.MaxValue, nil
}
