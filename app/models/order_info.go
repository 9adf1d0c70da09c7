package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ClientIndividual = "individual"
	ClientCompany    = "company"

	DeliveryPickup  = "pickup"
	DeliveryCourier = "courier"
	DeliveryCompany = "company"

	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

const (
	B2PStatusNew        = "new"
	B2PStatusRegistered = "registered"
	B2PStatusSuccess    = "success"
	B2PStatusFailed     = "failed"
	B2PStatusCanceled   = "canceled"
)

type OrderPrivateInfo struct {
	ID           string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	OrderID      string `gorm:"size:36;not null;uniqueIndex" json:"-"`
	ClientType   string `gorm:"size:16;default:'individual'" json:"client_type"`
	LastName     string `gorm:"size:64;not null" json:"last_name"`
	FirstName    string `gorm:"size:64;not null" json:"first_name"`
	MiddleName   string `gorm:"size:128" json:"middle_name"`
	Phone        string `gorm:"size:64;not null" json:"phone"`
	Email        string `gorm:"size:254;not null" json:"email"`
	PersonalData bool   `gorm:"default:false" json:"personal_data"`
}

func (i *OrderPrivateInfo) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == "" {
		i.ID = newID()
	}
	return
}

func (i *OrderPrivateInfo) FullName() string {
	return strings.TrimSpace(strings.Join([]string{i.LastName, i.FirstName, i.MiddleName}, " "))
}

func (i *OrderPrivateInfo) Validate() FieldErrors {
	errs := FieldErrors{}
	if i.ClientType != ClientIndividual && i.ClientType != ClientCompany {
		errs.Add("client_type", "Unknown client type.")
	}
	if !i.PersonalData {
		errs.Add("personal_data", "You must agree to the processing of personal data.")
	}
	return errs
}

type OrderDeliveryInfo struct {
	ID            string          `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	OrderID       string          `gorm:"size:36;not null;uniqueIndex" json:"-"`
	Type          string          `gorm:"size:16;default:'pickup'" json:"type"`
	FromAddressID *string         `gorm:"size:36" json:"from_address"`
	FromAddress   *Contact        `gorm:"foreignKey:FromAddressID" json:"-"`
	ToCountryID   *string         `gorm:"size:36" json:"to_country"`
	ToCityID      *string         `gorm:"size:36" json:"to_city"`
	ToCity        *City           `gorm:"foreignKey:ToCityID" json:"-"`
	ToAddress     string          `gorm:"size:512" json:"to_address"`
	Comment       string          `gorm:"type:text" json:"comment"`
	Price         decimal.Decimal `gorm:"type:decimal(16,2);default:0" json:"price"`
	DeliveryTerms bool            `gorm:"default:false" json:"delivery_terms"`
	MoscowTerms   bool            `gorm:"default:false" json:"moscow_terms"`
}

func (i *OrderDeliveryInfo) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == "" {
		i.ID = newID()
	}
	return
}

func (i *OrderDeliveryInfo) Validate() FieldErrors {
	errs := FieldErrors{}
	switch i.Type {
	case DeliveryPickup:
	case DeliveryCourier, DeliveryCompany:
		if i.ToCityID == nil {
			errs.Add("to_city", "This field is required.")
		}
		if i.ToAddress == "" {
			errs.Add("to_address", "This field is required.")
		}
	default:
		errs.Add("type", "Unknown delivery type.")
	}
	if !i.DeliveryTerms {
		errs.Add("delivery_terms", "You must agree to the delivery terms.")
	}
	if !i.MoscowTerms {
		errs.Add("moscow_terms", "You must agree that you are informed that the order is packaged in Moscow.")
	}
	return errs
}

type OrderPaymentInfo struct {
	ID      string               `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	OrderID string               `gorm:"size:36;not null;uniqueIndex" json:"-"`
	Type    string               `gorm:"size:16;default:'card'" json:"type"`
	B2P     *OrderPaymentB2PInfo `gorm:"foreignKey:PaymentInfoID" json:"b2p,omitempty"`
}

func (i *OrderPaymentInfo) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == "" {
		i.ID = newID()
	}
	return
}

func (i *OrderPaymentInfo) Validate() FieldErrors {
	errs := FieldErrors{}
	switch i.Type {
	case PaymentCash, PaymentCard, PaymentTransfer:
	default:
		errs.Add("type", "Unknown payment type.")
	}
	return errs
}

// OrderPaymentB2PInfo keeps the Best2Pay handshake state of a card payment.
type OrderPaymentB2PInfo struct {
	ID                  string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	PaymentInfoID       string `gorm:"size:36;not null;uniqueIndex" json:"-"`
	OrderID             string `gorm:"column:b2p_order_id;size:64" json:"b2p_order_id"`
	Status              string `gorm:"column:b2p_order_status;size:16;default:'new'" json:"b2p_order_status"`
	LastOperationNumber string `gorm:"column:b2p_last_operation_number;size:64" json:"b2p_last_operation_number"`
	LastOperationCode   string `gorm:"column:b2p_last_operation_code;size:64" json:"b2p_last_operation_code"`
	RegisterError       string `gorm:"type:text" json:"register_error,omitempty"`
}

func (i *OrderPaymentB2PInfo) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == "" {
		i.ID = newID()
	}
	if i.Status == "" {
		i.Status = B2PStatusNew
	}
	return
}

func IsB2PStatus(s string) bool {
	switch s {
	case B2PStatusNew, B2PStatusRegistered, B2PStatusSuccess, B2PStatusFailed, B2PStatusCanceled:
		return true
	}
	return false
}
