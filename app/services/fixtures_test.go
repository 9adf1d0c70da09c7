package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/models/migrations"
	"github.com/klioshop/klio/app/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.AutoMigrate(db))
	return db
}

type sentMail struct {
	To, Subject, Body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeNotifier) SendHTMLEmail(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return f.err
}

func (f *fakeNotifier) to(addr string) []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMail
	for _, m := range f.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func ptr[T any](v T) *T {
	return &v
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

// catalog is a small active tree: Tools > Drills, one product type and a
// brand.
type catalog struct {
	Root, Leaf models.Category
	Type       models.ProductType
	Brand      models.Brand
}

func seedCatalog(t *testing.T, db *gorm.DB) catalog {
	t.Helper()
	c := catalog{
		Root:  models.Category{Name: "Tools", Slug: "tools", Activity: true},
		Type:  models.ProductType{Name: "Drill", Slug: "drill"},
		Brand: models.Brand{Name: "Bosch", Slug: "bosch", Activity: true},
	}
	require.NoError(t, db.Create(&c.Root).Error)
	c.Leaf = models.Category{Name: "Drills", Slug: "drills", ParentID: &c.Root.ID, Activity: true}
	require.NoError(t, db.Create(&c.Leaf).Error)
	require.NoError(t, db.Create(&c.Type).Error)
	require.NoError(t, db.Create(&c.Brand).Error)
	return c
}

var artSeq int64 = 1000

func seedProduct(t *testing.T, db *gorm.DB, c catalog, name, price string, mutate ...func(*models.Product)) models.Product {
	t.Helper()
	artSeq++
	p := models.Product{
		Name:          name,
		Slug:          uuid.NewString()[:8],
		Kind:          models.ProductUnique,
		CategoryID:    &c.Leaf.ID,
		ProductTypeID: &c.Type.ID,
		BrandID:       &c.Brand.ID,
		Art:           ptr(artSeq),
		Price:         nullDec(price),
		BaseAmount:    nullDec("1"),
		InStock:       dec("10"),
		Activity:      true,
		CreatedAt:     time.Now().Add(-365 * 24 * time.Hour),
	}
	for _, m := range mutate {
		m(&p)
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedUser(t *testing.T, db *gorm.DB, email string, active bool) models.User {
	t.Helper()
	u := models.User{
		ID:       uuid.NewString(),
		Email:    email,
		Username: "u" + uuid.NewString()[:10],
		Password: "x",
		IsActive: active,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

const testAdminEmail = "admin@klio.test"

// shop wires the order-side services over one test database.
type shop struct {
	db       *gorm.DB
	cat      catalog
	mail     *fakeNotifier
	baskets  *BasketService
	checkout *CheckoutService
	orders   repositories.OrderRepository
}

func newShop(t *testing.T, tune ...func(*DeliveryRates)) *shop {
	t.Helper()
	db := newTestDB(t)
	basketRepo := repositories.NewBasketRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	productRepo := repositories.NewProductRepository(db)
	promoRepo := repositories.NewPromoCodeRepository(db)
	pricer := NewPricer(repositories.NewSpecialRepository(db))
	mail := &fakeNotifier{}

	rates := DeliveryRates{
		HomeCityID:  "moscow",
		HomePrice:   dec("300"),
		RegionPrice: dec("500"),
	}
	for _, f := range tune {
		f(&rates)
	}

	return &shop{
		db:      db,
		cat:     seedCatalog(t, db),
		mail:    mail,
		orders:  orderRepo,
		baskets: NewBasketService(db, basketRepo, orderRepo, productRepo, promoRepo, pricer, rates),
		checkout: NewCheckoutService(db, basketRepo, orderRepo, promoRepo, mail, CheckoutConfig{
			Rates:       rates,
			AdminEmails: []string{testAdminEmail},
			AppURL:      "http://klio.test/",
		}),
	}
}

func seedPromo(t *testing.T, db *gorm.DB, code string, mutate ...func(*models.PromoCode)) models.PromoCode {
	t.Helper()
	now := time.Now()
	promo := models.PromoCode{
		Code:           code,
		StartDate:      now.AddDate(0, 0, -1),
		Deadline:       now.AddDate(0, 0, 1),
		Activity:       true,
		DiscountType:   models.DiscountPercent,
		DiscountAmount: dec("10"),
	}
	for _, m := range mutate {
		m(&promo)
	}
	require.NoError(t, db.Create(&promo).Error)
	return promo
}
