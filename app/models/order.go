package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusActive    = "active"
	OrderStatusPending   = "pending"
	OrderStatusDelivery  = "delivery"
	OrderStatusCompleted = "completed"
	OrderStatusDenied    = "denied"
)

var OrderStatuses = []string{
	OrderStatusActive,
	OrderStatusPending,
	OrderStatusDelivery,
	OrderStatusCompleted,
	OrderStatusDenied,
}

type Order struct {
	ID           string              `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Received     *time.Time          `json:"received"`
	UserID       *string             `gorm:"size:36;index" json:"user"`
	User         *User               `gorm:"foreignKey:UserID" json:"-"`
	SessionKey   *string             `gorm:"size:40;index" json:"-"`
	Price        decimal.NullDecimal `gorm:"type:decimal(16,2)" json:"price"`
	BasketID     string              `gorm:"size:36;not null;uniqueIndex" json:"basket"`
	Basket       *Basket             `gorm:"foreignKey:BasketID" json:"-"`
	Status       string              `gorm:"size:16;not null;default:'active';index" json:"status"`
	IsPaid       bool                `gorm:"default:false" json:"is_paid"`
	Step         int                 `gorm:"default:1" json:"step"`
	Promo        bool                `gorm:"default:false" json:"promo"`
	PromoCode    string              `gorm:"size:20" json:"promo_code"`
	PrivateInfo  *OrderPrivateInfo   `gorm:"foreignKey:OrderID" json:"private_info"`
	DeliveryInfo *OrderDeliveryInfo  `gorm:"foreignKey:OrderID" json:"delivery_info"`
	PaymentInfo  *OrderPaymentInfo   `gorm:"foreignKey:OrderID" json:"payment_info"`
	CreatedAt    time.Time           `json:"created"`
	UpdatedAt    time.Time           `json:"modified"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == "" {
		o.ID = newID()
	}
	if o.Status == "" {
		o.Status = OrderStatusActive
	}
	if o.Step == 0 {
		o.Step = 1
	}
	return
}

// DeliveryPrice is zero when no delivery info is attached.
func (o *Order) DeliveryPrice() decimal.Decimal {
	if o.DeliveryInfo == nil {
		return decimal.Zero
	}
	return o.DeliveryInfo.Price
}

// Total is what the shopper pays: lines plus delivery.
func (o *Order) Total() decimal.Decimal {
	return o.Price.Decimal.Add(o.DeliveryPrice())
}

// CustomerEmail prefers the checkout contact over the account email.
func (o *Order) CustomerEmail() string {
	if o.PrivateInfo != nil && o.PrivateInfo.Email != "" {
		return o.PrivateInfo.Email
	}
	if o.User != nil {
		return o.User.Email
	}
	return ""
}

func (o *Order) CustomerName() string {
	if o.PrivateInfo != nil {
		return o.PrivateInfo.FullName()
	}
	if o.User != nil {
		return o.User.DisplayName()
	}
	return ""
}
