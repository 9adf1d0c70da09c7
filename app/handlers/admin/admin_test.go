package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/models/migrations"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unrolled/render"
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

func newTestAdmin(t *testing.T) (*AdminHandler, *gorm.DB, *mux.Router) {
	t.Helper()
	db := newTestDB(t)
	rd := render.New(render.Options{Directory: t.TempDir()})

	orders := repositories.NewOrderRepository(db)
	products := repositories.NewProductRepository(db)
	productAdmin := services.NewProductAdminService(db, products)
	exchange := services.NewExchangeService(orders, products, repositories.NewCategoryRepository(db), repositories.NewBrandRepository(db), productAdmin)
	h := NewAdminHandler(rd, db, orders, repositories.NewUserRepository(db), productAdmin, exchange, "http://localhost:8000")

	router := mux.NewRouter()
	h.Routes(router)
	return h, db, router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestBrandResourceCRUD(t *testing.T) {
	_, _, router := newTestAdmin(t)

	w := do(router, http.MethodPost, "/brands", `{"id":"ignored","name":"Makita","activity":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	assert.NotEqual(t, "ignored", id)
	assert.Equal(t, "makita", created["slug"])

	w = do(router, http.MethodPatch, "/brands/"+id, `{"description":"Japanese tools"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)
	assert.Equal(t, id, updated["id"])
	assert.Equal(t, "Makita", updated["name"])
	assert.Equal(t, "Japanese tools", updated["description"])
	assert.Equal(t, true, updated["activity"])

	w = do(router, http.MethodGet, "/brands", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = do(router, http.MethodDelete, "/brands/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(router, http.MethodGet, "/brands/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(router, http.MethodDelete, "/brands/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmptyListIsArray(t *testing.T) {
	_, _, router := newTestAdmin(t)

	w := do(router, http.MethodGet, "/tags", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCategoryCanNotParentItself(t *testing.T) {
	_, _, router := newTestAdmin(t)

	w := do(router, http.MethodPost, "/categories", `{"name":"Drills","activity":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	w = do(router, http.MethodPut, "/categories/"+id, `{"parent":"`+id+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Category can not be a parent of itself.", decode(t, w)["parent"])
}

func TestSpecialBindsCategoriesAndTags(t *testing.T) {
	_, db, router := newTestAdmin(t)

	category := &models.Category{Name: "Saws", Slug: "saws", Activity: true}
	tag := &models.Tag{Name: "sale", Activity: true}
	require.NoError(t, db.Create(category).Error)
	require.NoError(t, db.Create(tag).Error)

	deadline := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	body := `{"name":"Spring sale","deadline":"` + deadline + `","activity":true,` +
		`"categories":["` + category.ID + `"],"tags":["` + tag.ID + `"]}`
	w := do(router, http.MethodPost, "/specials", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	var special models.Special
	require.NoError(t, db.Preload("Categories").Preload("Tags").First(&special, "id = ?", id).Error)
	assert.Equal(t, "spring-sale", special.Slug)
	require.Len(t, special.Categories, 1)
	assert.Equal(t, category.ID, special.Categories[0].ID)
	require.Len(t, special.Tags, 1)
	assert.Equal(t, tag.ID, special.Tags[0].ID)

	// omitting the lists keeps them
	w = do(router, http.MethodPatch, "/specials/"+id, `{"content":"Up to 30% off"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	special = models.Special{}
	require.NoError(t, db.Preload("Categories").First(&special, "id = ?", id).Error)
	assert.Len(t, special.Categories, 1)

	w = do(router, http.MethodPatch, "/specials/"+id, `{"categories":[]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	special = models.Special{}
	require.NoError(t, db.Preload("Categories").First(&special, "id = ?", id).Error)
	assert.Empty(t, special.Categories)
}

func TestContactPhoneBindsParents(t *testing.T) {
	_, db, router := newTestAdmin(t)

	contact := &models.Contact{Name: "Main store", Activity: true}
	phone := &models.Phone{Phone: "+7 (495) 000-00-00"}
	require.NoError(t, db.Create(contact).Error)
	require.NoError(t, db.Create(phone).Error)

	w := do(router, http.MethodPost, "/contact-phones", `{"contact":"`+contact.ID+`","phone":"`+phone.ID+`","main":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var link models.ContactPhone
	require.NoError(t, db.First(&link, "id = ?", decode(t, w)["id"]).Error)
	assert.Equal(t, contact.ID, link.ContactID)
	assert.Equal(t, phone.ID, link.PhoneID)
	assert.True(t, link.Main)
}

func TestUpdateOrderStatus(t *testing.T) {
	_, db, router := newTestAdmin(t)

	basket := &models.Basket{}
	require.NoError(t, db.Create(basket).Error)
	order := &models.Order{BasketID: basket.ID, Status: models.OrderStatusPending}
	require.NoError(t, db.Create(order).Error)

	w := do(router, http.MethodPut, "/orders/"+order.ID+"/status", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPut, "/orders/"+order.ID+"/status", `{"status":"delivery"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.OrderStatusDelivery, decode(t, w)["status"])

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusDelivery, stored.Status)

	w = do(router, http.MethodGet, "/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportOrdersCSVHeaders(t *testing.T) {
	_, _, router := newTestAdmin(t)

	w := do(router, http.MethodGet, "/orders/export.csv?status=pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "orders.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "\ufeff"))
	assert.Contains(t, w.Body.String(), "Заказ")
}

func TestPromoCodeBindsStoredRowsOnly(t *testing.T) {
	_, db, router := newTestAdmin(t)

	category := &models.Category{Name: "Saws", Slug: "saws", Activity: true}
	product := &models.Product{Name: "Circular saw", Slug: "circular-saw", Activity: true}
	require.NoError(t, db.Create(category).Error)
	require.NoError(t, db.Create(product).Error)

	start := time.Now().UTC().Format(time.RFC3339)
	deadline := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	dates := `"start_date":"` + start + `","deadline":"` + deadline + `"`

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown product", `{"code":"X1",` + dates + `,"products":["no-such-product"]}`, "products"},
		{"unknown category", `{"code":"X1",` + dates + `,"categories":["` + category.ID + `","no-such-cat"]}`, "categories"},
		{"unknown tag", `{"code":"X1",` + dates + `,"tags":["no-such-tag"]}`, "tags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/promocodes", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decode(t, w)[tt.field], "does not exist")
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.PromoCode{}).Count(&count).Error)
	assert.Zero(t, count)

	w := do(router, http.MethodPost, "/promocodes", `{"code":"X1",`+dates+`,"activity":true,`+
		`"categories":["`+category.ID+`"],"products":["`+product.ID+`"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var promo models.PromoCode
	require.NoError(t, db.Preload("Categories").Preload("Products").First(&promo, "code = ?", "X1").Error)
	require.Len(t, promo.Categories, 1)
	assert.Equal(t, "Saws", promo.Categories[0].Name)
	require.Len(t, promo.Products, 1)
	assert.Equal(t, product.ID, promo.Products[0].ID)
}

func TestPromoCodeRequiresDates(t *testing.T) {
	_, _, router := newTestAdmin(t)

	w := do(router, http.MethodPost, "/promocodes", `{"code":"X2"}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "This field is required.", body["start_date"])
	assert.Equal(t, "This field is required.", body["deadline"])
}

func TestArticleRejectsUnsavedTags(t *testing.T) {
	_, db, router := newTestAdmin(t)

	w := do(router, http.MethodPost, "/articles", `{"title":"Choosing a drill","tags":[{"id":"no-such-tag","name":"drills"}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["tags"], "no-such-tag")

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Article{}).Count(&count).Error)
	assert.Zero(t, count)
}
