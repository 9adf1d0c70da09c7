package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Special is a site-wide sale campaign. It reaches products directly through
// SpecialProduct rows and indirectly through categories and tags.
type Special struct {
	ID string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Meta
	Name           string              `gorm:"size:64;not null" json:"name"`
	Slug           string              `gorm:"size:128;not null;uniqueIndex" json:"slug"`
	Date           time.Time           `json:"date"`
	StartDate      *time.Time          `json:"start_date"`
	Deadline       *time.Time          `json:"deadline"`
	Img            string              `gorm:"size:255" json:"img"`
	Content        string              `gorm:"type:text" json:"content"`
	Discount       bool                `gorm:"default:false" json:"discount"`
	DiscountType   string              `gorm:"size:10;default:'percent'" json:"discount_type"`
	DiscountAmount decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"discount_amount"`
	Threshold      *int                `json:"threshold"`
	Categories     []Category          `gorm:"many2many:special_categories" json:"-"`
	Tags           []Tag               `gorm:"many2many:special_tags" json:"-"`
	Products       []SpecialProduct    `gorm:"foreignKey:SpecialID" json:"-"`
	Activity       bool                `gorm:"default:false;index" json:"activity"`
}

func (s *Special) BeforeSave(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = newID()
	}
	if s.Date.IsZero() {
		s.Date = time.Now()
	}
	s.FillMeta(s.Name)

	errs := FieldErrors{}
	if s.Deadline == nil {
		errs.Add("deadline", "This field is required.")
	}
	validateWindow(s.StartDate, s.Deadline, errs)
	return errs.Err()
}

func (s *Special) IsRunning(now time.Time) bool {
	return s.Activity && InWindow(s.StartDate, s.Deadline, now)
}

func (s *Special) ThresholdValue() int {
	if s.Threshold == nil {
		return 0
	}
	return *s.Threshold
}

type SpecialProduct struct {
	ID             string              `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	SpecialID      string              `gorm:"size:36;not null;uniqueIndex:idx_special_product" json:"special"`
	Special        *Special            `gorm:"foreignKey:SpecialID" json:"-"`
	ProductID      string              `gorm:"size:36;not null;uniqueIndex:idx_special_product;index" json:"product"`
	Product        *Product            `gorm:"foreignKey:ProductID" json:"-"`
	OnMain         bool                `gorm:"default:false" json:"on_main"`
	DiscountAmount decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"discount_amount"`
}

func (p *SpecialProduct) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	return
}

type PromoCode struct {
	ID             string          `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Code           string          `gorm:"size:20;not null;uniqueIndex" json:"code"`
	StartDate      time.Time       `gorm:"type:date" json:"start_date"`
	Deadline       time.Time       `gorm:"type:date" json:"deadline"`
	Categories     []Category      `gorm:"many2many:promo_code_categories" json:"categories"`
	Products       []Product       `gorm:"many2many:promo_code_products" json:"products"`
	Tags           []Tag           `gorm:"many2many:promo_code_tags" json:"tags"`
	Activity       bool            `gorm:"default:false" json:"activity"`
	DiscountType   string          `gorm:"size:10;default:'percent'" json:"discount_type"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2)" json:"discount_amount"`
}

func (p *PromoCode) BeforeSave(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.DiscountType == "" {
		p.DiscountType = DiscountPercent
	}
	errs := FieldErrors{}
	if p.StartDate.IsZero() {
		errs.Add("start_date", "This field is required.")
	}
	if p.Deadline.IsZero() {
		errs.Add("deadline", "This field is required.")
	}
	if p.DiscountType != DiscountPercent && p.DiscountType != DiscountFixed {
		errs.Add("discount_type", "Unknown discount type.")
	}
	if p.DiscountAmount.IsNegative() {
		errs.Add("discount_amount", "Discount can not be negative.")
	}
	if p.DiscountType == DiscountPercent && p.DiscountAmount.GreaterThan(decimal.NewFromInt(100)) {
		errs.Add("discount_amount", "Percent discount can not exceed 100.")
	}
	return errs.Err()
}

// IsValidOn reports whether the code can be applied on day. Dates compare by
// calendar day, both bounds inclusive.
func (p *PromoCode) IsValidOn(day time.Time) bool {
	if !p.Activity {
		return false
	}
	d := dateOnly(day)
	return !dateOnly(p.StartDate).After(d) && !dateOnly(p.Deadline).Before(d)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
