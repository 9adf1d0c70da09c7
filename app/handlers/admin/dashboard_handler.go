package admin

import (
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/handlers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/services"
	"github.com/unrolled/render"
	"gorm.io/gorm"
)

type AdminHandler struct {
	render   *render.Render
	db       *gorm.DB
	orders   repositories.OrderRepository
	users    repositories.UserRepositoryImpl
	products *services.ProductAdminService
	exchange *services.ExchangeService
	appURL   string
}

func NewAdminHandler(
	rd *render.Render,
	db *gorm.DB,
	orders repositories.OrderRepository,
	users repositories.UserRepositoryImpl,
	products *services.ProductAdminService,
	exchange *services.ExchangeService,
	appURL string,
) *AdminHandler {
	return &AdminHandler{
		render:   rd,
		db:       db,
		orders:   orders,
		users:    users,
		products: products,
		exchange: exchange,
		appURL:   appURL,
	}
}

// Mounter is anything that registers its own routes under a prefix.
type Mounter interface {
	Mount(router *mux.Router, prefix string)
}

// CSRFToken hands the token to the back-office client, which echoes it in
// the X-CSRF-Token header of unsafe requests.
func (h *AdminHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-CSRF-Token", csrf.Token(r))
	h.render.JSON(w, http.StatusOK, map[string]interface{}{"csrf_token": csrf.Token(r)})
}

type dashboardCounts struct {
	PendingOrders int64 `json:"pending_orders"`
	PaidOrders    int64 `json:"paid_orders"`
	Products      int64 `json:"products"`
	Users         int64 `json:"users"`
	Subscribers   int64 `json:"subscribers"`
	Callbacks     int64 `json:"callbacks"`
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	db := h.db.WithContext(r.Context())
	var counts dashboardCounts
	queries := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&counts.PendingOrders, db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending)},
		{&counts.PaidOrders, db.Model(&models.Order{}).Where("is_paid = ?", true)},
		{&counts.Products, db.Model(&models.Product{})},
		{&counts.Users, db.Model(&models.User{})},
		{&counts.Subscribers, db.Model(&models.SubscriberInfo{})},
		{&counts.Callbacks, db.Model(&models.CallbackInfo{})},
	}
	for _, q := range queries {
		if err := q.query.Count(q.dst).Error; err != nil {
			handlers.WriteError(h.render, w, r, err)
			return
		}
	}
	h.render.JSON(w, http.StatusOK, counts)
}

// Routes registers the whole back office on router, which is expected to be
// mounted at /admin behind staff-only and CSRF middleware.
func (h *AdminHandler) Routes(router *mux.Router) {
	router.HandleFunc("/csrf", h.CSRFToken).Methods(http.MethodGet)
	router.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)

	router.HandleFunc("/orders", h.GetOrders).Methods(http.MethodGet)
	router.HandleFunc("/orders/export.csv", h.ExportOrdersCSV).Methods(http.MethodGet)
	router.HandleFunc("/orders/{id}", h.GetOrder).Methods(http.MethodGet)
	router.HandleFunc("/orders/{id}/status", h.UpdateOrderStatus).Methods(http.MethodPut)
	router.HandleFunc("/orders/{id}/print", h.PrintOrder).Methods(http.MethodGet)

	router.HandleFunc("/products", h.GetProducts).Methods(http.MethodGet)
	router.HandleFunc("/products", h.CreateProduct).Methods(http.MethodPost)
	router.HandleFunc("/products/export.csv", h.ExportProductCategoriesCSV).Methods(http.MethodGet)
	router.HandleFunc("/products/import.csv", h.ImportProductCategoriesCSV).Methods(http.MethodPost)
	router.HandleFunc("/products/export.xlsx", h.ExportProductsXLSX).Methods(http.MethodGet)
	router.HandleFunc("/products/import.xlsx", h.ImportProductsXLSX).Methods(http.MethodPost)
	router.HandleFunc("/products/{id}", h.GetProduct).Methods(http.MethodGet)
	router.HandleFunc("/products/{id}", h.UpdateProduct).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc("/products/{id}", h.DeleteProduct).Methods(http.MethodDelete)

	router.HandleFunc("/users", h.GetUsers).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}", h.UpdateUser).Methods(http.MethodPut, http.MethodPatch)

	for _, group := range []map[string]Mounter{h.CatalogResources(), h.ContentResources(), h.SaleResources()} {
		for prefix, res := range group {
			res.Mount(router, prefix)
		}
	}
}
