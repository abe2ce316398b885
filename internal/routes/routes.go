package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/vitecommerce/internal/config"
	"github.com/example/vitecommerce/internal/handlers"
	"github.com/example/vitecommerce/internal/middleware"
	"github.com/example/vitecommerce/internal/services"
)

// Services are the application services the HTTP layer calls into.
type Services struct {
	Auth      *services.AuthService
	OTP       *services.OTPService
	Users     *services.UserService
	Addresses *services.AddressService
	Catalog   *services.CatalogService
	Carts     *services.CartService
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, cfg *config.Config, svc Services) {
	secure := cfg.IsProduction()

	authHandler := handlers.NewAuthHandler(svc.Auth, svc.OTP, secure)
	userHandler := handlers.NewUserHandler(svc.Users, secure)
	addressHandler := handlers.NewAddressHandler(svc.Addresses)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog)
	productHandler := handlers.NewProductHandler(svc.Catalog)
	cartHandler := handlers.NewCartHandler(svc.Carts)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if cfg.StorageDriver == config.StorageLocal {
		app.Static("/uploads", cfg.LocalStorageDir)
	}

	api := app.Group("/api/v1", middleware.Timeout(cfg.RequestTimeout))

	protect := middleware.AuthMiddleware(svc.Auth)
	admin := middleware.RequireAdmin()

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh-token", authHandler.RefreshToken)
	auth.Post("/logout", protect, authHandler.Logout)
	auth.Get("/current-user", protect, authHandler.CurrentUser)
	auth.Post("/generate-otp-code", protect, authHandler.GenerateOTP)
	auth.Post("/verification-account", protect, authHandler.Verify)
	auth.Put("/update-password", protect, authHandler.UpdatePassword)

	users := api.Group("/user", protect)
	users.Get("/", admin, userHandler.ListUsers)
	users.Put("/update", userHandler.UpdateProfile)
	users.Delete("/delete", userHandler.DeleteAccount)

	addresses := api.Group("/address", protect)
	addresses.Post("/", addressHandler.Create)
	addresses.Get("/", admin, addressHandler.ListAll)
	addresses.Get("/userId", addressHandler.ListMine)
	addresses.Put("/setDefault/:addressId", addressHandler.SetDefault)
	addresses.Put("/:addressId", addressHandler.Update)
	addresses.Delete("/:addressId", addressHandler.Delete)

	categories := api.Group("/category")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", protect, admin, catalogHandler.CreateCategory)
	categories.Put("/:id", protect, admin, catalogHandler.UpdateCategory)
	categories.Delete("/:id", protect, admin, catalogHandler.DeleteCategory)

	// Products
	products := api.Group("/product")
	productHandler.RegisterProductRoutes(products, protect, admin)

	cart := api.Group("/cart", protect, middleware.RequireVerified())
	cart.Post("/", cartHandler.Upsert)
	cart.Get("/", cartHandler.Get)
	cart.Put("/item", cartHandler.UpdateItem)
	cart.Delete("/item/:productId", cartHandler.RemoveItem)
	cart.Delete("/", cartHandler.Clear)

	app.Use(middleware.NotFound())
}
