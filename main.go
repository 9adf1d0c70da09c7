package main

import (
	"net/http"
	"os"
	"time"

	"github.com/klioshop/klio/app/cmd"
	"github.com/klioshop/klio/app/configs"
	"github.com/klioshop/klio/app/handlers"
	"github.com/klioshop/klio/app/handlers/admin"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/routes"
	"github.com/klioshop/klio/app/services"
	"github.com/klioshop/klio/app/utils/renderer"
	"github.com/klioshop/klio/app/utils/sessions"
	"go.uber.org/zap"
)

func main() {
	env := configs.LoadENV

	logger, err := configs.NewLogger(env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if len(os.Args) > 1 {
		cmd.RunCli()
		return
	}

	db, err := configs.OpenConnection()
	if err != nil {
		zap.L().Fatal("DB connection failed", zap.Error(err))
	}

	keys, err := configs.LoadSessionKeysFromEnv(env)
	if err != nil {
		zap.L().Fatal("Session keys are not configured, run `generate-keys`", zap.Error(err))
	}
	sessionStore := sessions.NewCookieSessionStore(env.IsProduction(), keys.AuthKey, keys.EncKey)
	zap.L().Info("Session store initialized")

	rd := renderer.New()
	validate := helpers.NewValidator()
	mailer := services.NewMailer(services.Config{
		Host:     env.EmailHost,
		Port:     env.EmailPort,
		Username: env.EmailUsername,
		Password: env.EmailPassword,
		From:     env.EmailFrom,
	})
	b2p := services.NewBest2PayClient(services.Best2PayConfig{
		Sector:          env.B2PSector,
		Secret:          env.B2PSecret,
		BaseURL:         env.B2PBaseURL,
		SuccessRedirect: env.B2PSuccessRedirect,
		FailRedirect:    env.B2PFailRedirect,
	})

	users := repositories.NewUserRepository(db)
	categories := repositories.NewCategoryRepository(db)
	brands := repositories.NewBrandRepository(db)
	products := repositories.NewProductRepository(db)
	specials := repositories.NewSpecialRepository(db)
	promos := repositories.NewPromoCodeRepository(db)
	baskets := repositories.NewBasketRepository(db)
	orders := repositories.NewOrderRepository(db)
	content := repositories.NewContentRepository(db)

	pricer := services.NewPricer(specials)
	authService := services.NewAuthService(users, services.NewSigner(env.SecretKey, env.RegistrationSalt), mailer, services.AuthConfig{
		AppURL:         env.AppURL,
		ActivationDays: env.AccountActivationDays,
		ResetDays:      env.PasswordResetDays,
	})
	rates := services.DeliveryRates{
		HomeCityID:  env.DeliveryHomeCityID,
		HomePrice:   env.DeliveryHomePrice,
		RegionPrice: env.DeliveryRegionPrice,
		FreeFrom:    env.DeliveryFreeFrom,
	}
	basketService := services.NewBasketService(db, baskets, orders, products, promos, pricer, rates)
	checkoutService := services.NewCheckoutService(db, baskets, orders, promos, mailer, services.CheckoutConfig{
		Rates:       rates,
		AdminEmails: env.AdminEmails,
		AppURL:      env.AppURL,
	})
	paymentService := services.NewPaymentService(db, orders, b2p)
	catalogService := services.NewCatalogService(categories, brands, products, specials, users, pricer)
	contentService := services.NewContentService(content, repositories.NewContactRepository(db), repositories.NewTagRepository(db), mailer, env.AdminEmails)
	searchService := services.NewSearchService(categories, products, content, pricer)
	productAdmin := services.NewProductAdminService(db, products)
	exchange := services.NewExchangeService(orders, products, categories, brands, productAdmin)

	router := routes.NewRouter(routes.Dependencies{
		Render:   rd,
		Sessions: sessionStore,
		Users:    users,

		Auth:    handlers.NewAuthHandler(rd, authService, basketService, sessionStore, validate),
		Basket:  handlers.NewBasketHandler(rd, basketService),
		Order:   handlers.NewOrderHandler(rd, checkoutService, paymentService, validate),
		Catalog: handlers.NewCatalogHandler(rd, catalogService),
		Content: handlers.NewContentHandler(rd, contentService, searchService, validate),
		Admin:   admin.NewAdminHandler(rd, db, orders, users, productAdmin, exchange, env.AppURL),

		CORSOrigins: env.CORSAllowedOrigins,
		CSRFKey:     keys.AuthKey[:32],
		Secure:      env.IsProduction(),
	})

	server := &http.Server{
		Addr:              env.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zap.L().Info("Server starting", zap.String("addr", server.Addr), zap.String("env", env.AppEnv))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}
