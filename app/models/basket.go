package models

import (
	"time"

	"github.com/klioshop/klio/app/utils/calc"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Basket belongs either to a user or to an anonymous session key. Only one
// active basket exists per owner.
type Basket struct {
	ID         string          `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	UserID     *string         `gorm:"size:36;index" json:"-"`
	SessionKey *string         `gorm:"size:40;index" json:"-"`
	IsActive   bool            `gorm:"index" json:"is_active"`
	Products   []BasketProduct `gorm:"foreignKey:BasketID" json:"-"`
	CreatedAt  time.Time       `json:"created"`
	UpdatedAt  time.Time       `json:"modified"`
}

func (b *Basket) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = newID()
	}
	return
}

type BasketProduct struct {
	ID         string              `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	BasketID   string              `gorm:"size:36;not null;uniqueIndex:idx_basket_product" json:"-"`
	ProductID  string              `gorm:"size:36;not null;uniqueIndex:idx_basket_product" json:"-"`
	Product    Product             `gorm:"foreignKey:ProductID" json:"-"`
	Quantity   int                 `gorm:"not null;default:1" json:"quantity"`
	Price      decimal.Decimal     `gorm:"type:decimal(16,2)" json:"price"`
	PromoPrice decimal.NullDecimal `gorm:"type:decimal(16,2)" json:"promo_price"`
	CreatedAt  time.Time           `json:"added"`
}

func (p *BasketProduct) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	return
}

// UnitPrice is the promo price when one is set, the regular price otherwise.
func (p *BasketProduct) UnitPrice() decimal.Decimal {
	if p.PromoPrice.Valid {
		return p.PromoPrice.Decimal
	}
	return p.Price
}

func (p *BasketProduct) Total() decimal.Decimal {
	return calc.LineTotal(p.UnitPrice(), p.Quantity)
}
