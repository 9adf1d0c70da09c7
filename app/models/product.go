package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProductUnique = "unique"
	ProductParent = "parent"
	ProductChild  = "child"
)

const (
	IsNewNew        = "new"
	IsNewCalculated = "calculated"
	IsNewNotNew     = "not_new"
)

// NewProductPeriod is how long a product with the calculated flag counts as new.
const NewProductPeriod = 60 * 24 * time.Hour

type Product struct {
	ID string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Meta
	Name          string              `gorm:"size:256;not null" json:"name"`
	Slug          string              `gorm:"size:256;not null;uniqueIndex:idx_product_category_slug" json:"slug"`
	Description   string              `gorm:"type:text" json:"description"`
	Kind          string              `gorm:"size:16;not null;default:'unique';index" json:"kind"`
	ParentID      *string             `gorm:"size:36;index" json:"parent"`
	Parent        *Product            `gorm:"foreignKey:ParentID" json:"-"`
	ProductTypeID *string             `gorm:"size:36;index" json:"product_type"`
	ProductType   *ProductType        `gorm:"foreignKey:ProductTypeID" json:"-"`
	CategoryID    *string             `gorm:"size:36;uniqueIndex:idx_product_category_slug" json:"category"`
	Category      *Category           `gorm:"foreignKey:CategoryID" json:"-"`
	BrandID       *string             `gorm:"size:36;index" json:"brand"`
	Brand         *Brand              `gorm:"foreignKey:BrandID" json:"-"`
	Art           *int64              `gorm:"uniqueIndex" json:"art"`
	Tags          []Tag               `gorm:"many2many:product_tags" json:"-"`
	InStock       decimal.Decimal     `gorm:"type:decimal(16,4);default:0" json:"in_stock"`
	UnitID        *string             `gorm:"size:36" json:"units"`
	Unit          *Unit               `gorm:"foreignKey:UnitID" json:"-"`
	Price         decimal.NullDecimal `gorm:"type:decimal(16,2)" json:"price"`
	BaseAmount    decimal.NullDecimal `gorm:"type:decimal(16,4)" json:"base_amount"`

	WholesaleThreshold decimal.NullDecimal `gorm:"type:decimal(16,4)" json:"wholesale_threshold"`
	WholesalePrice     decimal.NullDecimal `gorm:"type:decimal(16,2)" json:"wholesale_price"`

	Recommended    []Product              `gorm:"many2many:product_recommended;joinForeignKey:ProductID;joinReferences:RecommendedID" json:"-"`
	IsNew          string                 `gorm:"size:12;default:'calculated'" json:"is_new"`
	SortOrder      int                    `gorm:"default:0" json:"order"`
	Activity       bool                   `gorm:"default:false;index" json:"activity"`
	Images         []ProductImage         `gorm:"foreignKey:ProductID" json:"-"`
	PropertyValues []ProductPropertyValue `gorm:"foreignKey:ProductID" json:"-"`
	CreatedAt      time.Time              `json:"created"`
	UpdatedAt      time.Time              `json:"-"`
}

func (p *Product) BeforeSave(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.Kind == "" {
		p.Kind = ProductUnique
	}
	if p.IsNew == "" {
		p.IsNew = IsNewCalculated
	}
	p.FillMeta(p.Name)
	return nil
}

func (p *Product) IsChild() bool {
	return p.Kind == ProductChild
}

// Validate checks the kind rules. parent must be the loaded parent product
// for a child and may be nil otherwise.
func (p *Product) Validate(parent *Product) FieldErrors {
	errs := FieldErrors{}

	if p.InStock.IsNegative() {
		errs.Add("in_stock", "Amount in stock can not be negative.")
	}
	if p.Price.Valid && p.Price.Decimal.IsNegative() {
		errs.Add("price", "Product price can not be negative.")
	}

	switch p.Kind {
	case ProductUnique:
		if p.ParentID != nil {
			errs.Add("parent", "Unique product should not have a parent")
		}
		if p.CategoryID == nil {
			errs.Add("category", "Unique product should contain a category")
		}
		if p.ProductTypeID == nil {
			errs.Add("product_type", "Unique product should contain a product type")
		}
		if p.Art == nil {
			errs.Add("art", "Unique product should contain an article number")
		}
		if !p.Price.Valid {
			errs.Add("price", "Unique product should contain a price")
		}
		if !p.BaseAmount.Valid {
			errs.Add("base_amount", "Unique product should contain a base amount")
		}
	case ProductParent:
		if p.ParentID != nil {
			errs.Add("parent", "Parent product should not have a parent")
		}
		if p.CategoryID == nil {
			errs.Add("category", "Parent product should contain a category")
		}
		if p.ProductTypeID == nil {
			errs.Add("product_type", "Parent product should contain a product type")
		}
		if p.Art != nil {
			errs.Add("art", "Parent product should not have an article number")
		}
		if !p.InStock.IsZero() {
			errs.Add("in_stock", "Parent product should not have a number of items in stock. Set it to 0.")
		}
		if p.Price.Valid {
			errs.Add("price", "Parent product should not have a price")
		}
		if !p.BaseAmount.Valid {
			errs.Add("base_amount", "Parent product should contain a base amount")
		}
	case ProductChild:
		if p.ParentID == nil || parent == nil {
			errs.Add("parent", "Child product must have a parent")
		} else if parent.ProductTypeID == nil {
			errs.Add("parent", "Selected parent is not valid - no product type found.")
		}
		if p.CategoryID != nil {
			errs.Add("category", "Child product inherit its parent category. Leave it blank or choose parents.")
		}
		if p.ProductTypeID != nil {
			errs.Add("product_type", "Child product inherit its parent product type")
		}
		if p.BrandID != nil {
			errs.Add("brand", "Child product inherit its parent brand")
		}
		if p.UnitID != nil {
			errs.Add("units", "Child product inherit its parent units")
		}
		if p.BaseAmount.Valid {
			errs.Add("base_amount", "Child product inherit its parent base amount")
		}
		if !p.Price.Valid {
			errs.Add("price", "Child product must have a price")
		}
		if p.Art == nil {
			errs.Add("art", "Child product must have an article number")
		}
	default:
		errs.Add("kind", "Unknown product kind.")
	}

	return errs
}

// The Effective getters resolve attributes a child inherits from its
// parent. They expect Parent to be preloaded for children.

func (p *Product) inheritsFromParent() bool {
	return p.Kind == ProductChild && p.Parent != nil
}

func (p *Product) EffectiveCategory() *Category {
	if p.inheritsFromParent() {
		return p.Parent.Category
	}
	return p.Category
}

func (p *Product) EffectiveCategoryID() *string {
	if p.inheritsFromParent() {
		return p.Parent.CategoryID
	}
	return p.CategoryID
}

func (p *Product) EffectiveProductTypeID() *string {
	if p.inheritsFromParent() {
		return p.Parent.ProductTypeID
	}
	return p.ProductTypeID
}

func (p *Product) EffectiveBrand() *Brand {
	if p.inheritsFromParent() {
		return p.Parent.Brand
	}
	return p.Brand
}

func (p *Product) EffectiveUnit() *Unit {
	if p.inheritsFromParent() {
		return p.Parent.Unit
	}
	return p.Unit
}

func (p *Product) EffectiveBaseAmount() decimal.NullDecimal {
	if p.inheritsFromParent() {
		return p.Parent.BaseAmount
	}
	return p.BaseAmount
}

func (p *Product) EffectiveTags() []Tag {
	if len(p.Tags) == 0 && p.inheritsFromParent() {
		return p.Parent.Tags
	}
	return p.Tags
}

// NewFlag resolves is_new into the tri-state the API exposes: true or nil.
func (p *Product) NewFlag(now time.Time) *bool {
	isNew := false
	switch p.IsNew {
	case IsNewNew:
		isNew = true
	case IsNewCalculated:
		isNew = p.CreatedAt.After(now.Add(-NewProductPeriod))
	}
	if !isNew {
		return nil
	}
	return &isNew
}

type ProductImage struct {
	ID        string    `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	ProductID string    `gorm:"size:36;index;not null" json:"-"`
	Img       string    `gorm:"size:255;not null" json:"url"`
	Label     string    `gorm:"size:128" json:"label"`
	SortOrder int       `gorm:"default:0" json:"-"`
	Activity  bool      `gorm:"default:false" json:"-"`
	CreatedAt time.Time `json:"-"`
}

func (i *ProductImage) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == "" {
		i.ID = newID()
	}
	return
}
