package migrations

import (
	"github.com/klioshop/klio/app/models"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Country{}, &models.City{},
		&models.User{}, &models.UserPhone{},
		&models.Tag{}, &models.Unit{}, &models.Brand{}, &models.Category{},
		&models.ProductProperty{}, &models.ProductType{},
		&models.Product{}, &models.ProductImage{}, &models.ProductPropertyValue{}, &models.UserProduct{},
		&models.Special{}, &models.SpecialProduct{}, &models.PromoCode{},
		&models.Basket{}, &models.BasketProduct{},
		&models.Phone{}, &models.Contact{}, &models.ContactPhone{}, &models.WorkingHours{}, &models.SocialNet{},
		&models.Order{}, &models.OrderPrivateInfo{}, &models.OrderDeliveryInfo{},
		&models.OrderPaymentInfo{}, &models.OrderPaymentB2PInfo{},
		&models.Article{}, &models.News{}, &models.Banner{}, &models.Page{},
		&models.Menu{}, &models.MenuItem{},
		&models.SiteSettings{}, &models.SubscriberInfo{}, &models.CallbackInfo{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// EnableTrigram installs pg_trgm on postgres so search can rank by
// similarity. Other dialects fall back to LIKE matching.
func EnableTrigram(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error
}
