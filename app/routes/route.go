package routes

import (
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/handlers"
	"github.com/klioshop/klio/app/handlers/admin"
	"github.com/klioshop/klio/app/middlewares"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/utils/sessions"
	"github.com/unrolled/render"
)

type Dependencies struct {
	Render   *render.Render
	Sessions sessions.SessionStore
	Users    repositories.UserRepositoryImpl

	Auth    *handlers.AuthHandler
	Basket  *handlers.BasketHandler
	Order   *handlers.OrderHandler
	Catalog *handlers.CatalogHandler
	Content *handlers.ContentHandler
	Admin   *admin.AdminHandler

	CORSOrigins []string
	CSRFKey     []byte
	Secure      bool
}

func NewRouter(deps Dependencies) http.Handler {
	router := mux.NewRouter()
	router.Use(middlewares.RequestLogger)
	router.Use(middlewares.SessionMiddleware(deps.Sessions, deps.Users))

	requireAuth := middlewares.RequireAuth(deps.Render)
	api := router.PathPrefix("/api/v1").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", deps.Auth.Register).Methods(http.MethodPost)
	auth.HandleFunc("/activate/{activation_key}", deps.Auth.Activate).Methods(http.MethodGet)
	auth.HandleFunc("/login", deps.Auth.Login).Methods(http.MethodPost)
	auth.HandleFunc("/logout", deps.Auth.Logout).Methods(http.MethodGet)
	auth.HandleFunc("/password/reset", deps.Auth.RequestPasswordReset).Methods(http.MethodPut)
	auth.HandleFunc("/password/{user_id}/set/{reset_key}", deps.Auth.SetPassword).Methods(http.MethodPut)

	users := api.PathPrefix("/users").Subrouter()
	users.Use(requireAuth)
	users.HandleFunc("/current", deps.Auth.CurrentUser).Methods(http.MethodGet)
	users.HandleFunc("/current/update", deps.Auth.UpdateCurrentUser).Methods(http.MethodPut, http.MethodPatch)

	order := api.PathPrefix("/basket/order").Subrouter()
	order.HandleFunc("/create", deps.Order.Create).Methods(http.MethodPost)
	order.HandleFunc("/active", deps.Order.Active).Methods(http.MethodGet)
	order.HandleFunc("/pending", deps.Order.Pending).Methods(http.MethodGet)
	order.HandleFunc("/active/update", deps.Order.UpdateActive).Methods(http.MethodPut)
	order.HandleFunc("/active/to-pending", deps.Order.ToPending).Methods(http.MethodPut)
	order.HandleFunc("/private/create", deps.Order.CreatePrivateInfo).Methods(http.MethodPost)
	order.HandleFunc("/private/update", deps.Order.UpdatePrivateInfo).Methods(http.MethodPut)
	order.HandleFunc("/delivery/create", deps.Order.CreateDeliveryInfo).Methods(http.MethodPost)
	order.HandleFunc("/delivery/update", deps.Order.UpdateDeliveryInfo).Methods(http.MethodPut)
	order.HandleFunc("/payment/create", deps.Order.CreatePaymentInfo).Methods(http.MethodPost)
	order.HandleFunc("/payment/update", deps.Order.UpdatePaymentInfo).Methods(http.MethodPut)
	order.HandleFunc("/payment/{id}/processing/redirect", deps.Order.PaymentRedirect).Methods(http.MethodGet)
	order.HandleFunc("/payment/{id}/processing/status", deps.Order.PaymentStatus).Methods(http.MethodPut)
	order.Handle("/list", requireAuth(http.HandlerFunc(deps.Order.List))).Methods(http.MethodGet)

	basket := api.PathPrefix("/basket").Subrouter()
	basket.HandleFunc("/current", deps.Basket.Current).Methods(http.MethodGet)
	basket.HandleFunc("/current/inactivate", deps.Basket.Inactivate).Methods(http.MethodPut)
	basket.HandleFunc("/products/{id}/add", deps.Basket.AddProduct).Methods(http.MethodPost)
	basket.HandleFunc("/products/{id}/update", deps.Basket.UpdateProduct).Methods(http.MethodPut)
	basket.HandleFunc("/products/{id}/delete", deps.Basket.RemoveProduct).Methods(http.MethodDelete)

	products := api.PathPrefix("/products").Subrouter()
	products.HandleFunc("/brands/list", deps.Catalog.Brands).Methods(http.MethodGet)
	products.HandleFunc("/brands/{slug}/detail", deps.Catalog.Brand).Methods(http.MethodGet)
	products.HandleFunc("/brands/{slug}/filters/list", deps.Catalog.BrandFilters).Methods(http.MethodGet)
	products.HandleFunc("/brands/{slug}/products/list", deps.Catalog.BrandProducts).Methods(http.MethodGet)
	products.HandleFunc("/categories/list", deps.Catalog.Categories).Methods(http.MethodGet)
	products.HandleFunc("/categories/list/mainpage", deps.Catalog.MainPageCategories).Methods(http.MethodGet)
	products.HandleFunc("/categories/{slug}/detail", deps.Catalog.Category).Methods(http.MethodGet)
	products.HandleFunc("/categories/{slug}/filters/list", deps.Catalog.CategoryFilters).Methods(http.MethodGet)
	products.HandleFunc("/categories/{slug}/products/list", deps.Catalog.CategoryProducts).Methods(http.MethodGet)
	products.HandleFunc("/categories/{category_slug}/products/{slug}/detail", deps.Catalog.Product).Methods(http.MethodGet)
	products.HandleFunc("/list/mainpage/new", deps.Catalog.MainNew).Methods(http.MethodGet)
	products.HandleFunc("/list/mainpage/special", deps.Catalog.MainSpecial).Methods(http.MethodGet)
	products.HandleFunc("/search/list", deps.Catalog.Search).Methods(http.MethodGet)
	products.Handle("/favorites", requireAuth(http.HandlerFunc(deps.Catalog.Favorites))).Methods(http.MethodGet)
	products.Handle("/favorites/{id}/add", requireAuth(http.HandlerFunc(deps.Catalog.AddFavorite))).Methods(http.MethodPost)
	products.Handle("/favorites/{id}/delete", requireAuth(http.HandlerFunc(deps.Catalog.RemoveFavorite))).Methods(http.MethodDelete)

	sale := api.PathPrefix("/sale").Subrouter()
	sale.HandleFunc("/specials/list", deps.Catalog.Specials).Methods(http.MethodGet)
	sale.HandleFunc("/specials/{slug}/detail", deps.Catalog.Special).Methods(http.MethodGet)
	sale.HandleFunc("/specials/{slug}/products/list", deps.Catalog.SpecialProducts).Methods(http.MethodGet)

	tags := api.PathPrefix("/tags").Subrouter()
	tags.HandleFunc("/list", deps.Content.Tags).Methods(http.MethodGet)
	tags.HandleFunc("/{id}/detail", deps.Content.Tag).Methods(http.MethodGet)

	contacts := api.PathPrefix("/contacts").Subrouter()
	contacts.HandleFunc("/list", deps.Content.Contacts).Methods(http.MethodGet)
	contacts.HandleFunc("/socials/list", deps.Content.Socials).Methods(http.MethodGet)
	contacts.HandleFunc("/{id}/detail", deps.Content.Contact).Methods(http.MethodGet)

	general := api.PathPrefix("/general").Subrouter()
	general.HandleFunc("/articles/list", deps.Content.Articles).Methods(http.MethodGet)
	general.HandleFunc("/articles/{slug}/detail", deps.Content.Article).Methods(http.MethodGet)
	general.HandleFunc("/news/list", deps.Content.News).Methods(http.MethodGet)
	general.HandleFunc("/news/{slug}/detail", deps.Content.NewsEntry).Methods(http.MethodGet)
	general.HandleFunc("/banners/list", deps.Content.Banners).Methods(http.MethodGet)
	general.HandleFunc("/banners/{id}/detail", deps.Content.Banner).Methods(http.MethodGet)
	general.HandleFunc("/cities/list", deps.Content.Cities).Methods(http.MethodGet)
	general.HandleFunc("/menu/list", deps.Content.Menus).Methods(http.MethodGet)
	general.HandleFunc("/pages/{slug}/detail", deps.Content.Page).Methods(http.MethodGet)
	general.HandleFunc("/settings", deps.Content.Settings).Methods(http.MethodGet)
	general.HandleFunc("/subscribe", deps.Content.Subscribe).Methods(http.MethodPost)
	general.HandleFunc("/callback", deps.Content.Callback).Methods(http.MethodPost)

	api.HandleFunc("/search", deps.Content.Search).Methods(http.MethodGet)

	backOffice := router.PathPrefix("/admin").Subrouter()
	backOffice.Use(middlewares.AdminOnly(deps.Render))
	backOffice.Use(csrf.Protect(deps.CSRFKey, csrf.Secure(deps.Secure), csrf.Path("/admin")))
	deps.Admin.Routes(backOffice)

	return middlewares.CORS(deps.CORSOrigins)(router)
}
