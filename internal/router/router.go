package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"furnistore/internal/handler"
	"furnistore/internal/handler/api"
	"furnistore/internal/metrics"
	"furnistore/internal/middleware"
	"furnistore/internal/models"
	"furnistore/internal/repository"
	"furnistore/internal/service"
	"furnistore/internal/storage"
)

// Deps carries everything the routes need.
type Deps struct {
	DB       *gorm.DB
	Logger   *zap.Logger
	Auth     *service.AuthService
	Orders   *service.OrderService
	Payments *service.PaymentService
	Storage  storage.ObjectStorage
	// StorageDir is served under /storage when images live on local disk.
	StorageDir      string
	CallbackDeduper middleware.CallbackDeduper
	FrontendURL     string
	CORSOrigins     []string
}

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, d Deps) {
	e.Validator = api.NewValidator()

	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS(d.CORSOrigins))
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(metrics.Middleware())

	// Repositories
	products := repository.NewProductRepository(d.DB)
	categories := repository.NewCategoryRepository(d.DB)
	orders := repository.NewOrderRepository(d.DB)
	wishlist := repository.NewWishlistRepository(d.DB)
	reports := repository.NewReportRepository(d.DB)

	// Handlers
	authHandler := api.NewAuthHandler(d.Auth, d.Logger)
	productHandler := api.NewProductHandler(products, d.Storage, d.Logger)
	categoryHandler := api.NewCategoryHandler(categories, d.Storage, d.Logger)
	orderHandler := api.NewOrderHandler(d.Orders, d.Logger)
	paymentHandler := api.NewPaymentHandler(d.Payments, d.Logger)
	wishlistHandler := api.NewWishlistHandler(wishlist, products, d.Logger)
	reportHandler := api.NewReportHandler(reports, orders, wishlist, d.Logger)
	callbackHandler := handler.NewPaymentCallbackHandler(d.Payments, d.FrontendURL, d.Logger)

	g := e.Group("/api")

	// Public
	g.POST("/register", authHandler.Register)
	g.POST("/auth/register", authHandler.Register)
	g.POST("/login", authHandler.Login)
	g.GET("/products", productHandler.List)
	g.GET("/products/featured/list", productHandler.Featured)
	g.GET("/products/category/:category", productHandler.ByCategory)
	g.GET("/products/:id", productHandler.Show)
	g.GET("/categories", categoryHandler.List)

	// Gateway callbacks arrive from the customer's browser, without a token.
	callbacks := g.Group("/payment", middleware.CallbackDedup(d.CallbackDeduper))
	methods := []string{http.MethodGet, http.MethodPost}
	callbacks.Match(methods, "/success", callbackHandler.Success)
	callbacks.Match(methods, "/fail", callbackHandler.Fail)
	callbacks.Match(methods, "/cancel", callbackHandler.Cancel)

	// Authenticated
	authed := g.Group("", middleware.Auth(d.Auth))
	authed.GET("/user", authHandler.Me)
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/logout", authHandler.Logout)
	authed.PUT("/user/profile", authHandler.UpdateProfile)
	authed.PUT("/user/password", authHandler.ChangePassword)
	authed.GET("/user/dashboard", reportHandler.UserDashboard)

	authed.POST("/orders", orderHandler.Create)
	authed.GET("/user/orders", orderHandler.Mine)
	authed.GET("/user/orders/:id", orderHandler.MineShow)

	authed.GET("/user/wishlist", wishlistHandler.List)
	authed.POST("/user/wishlist", wishlistHandler.Add)
	authed.DELETE("/user/wishlist/:id", wishlistHandler.Remove)
	authed.DELETE("/user/wishlist/product/:productId", wishlistHandler.RemoveByProduct)
	authed.GET("/user/wishlist/check/:productId", wishlistHandler.Check)

	authed.POST("/payment/initiate", paymentHandler.Initiate)
	authed.GET("/payment/status/:orderId", paymentHandler.Status)

	// Admin
	admin := g.Group("/admin", middleware.Auth(d.Auth), middleware.RequireRole(models.RoleAdmin))
	admin.GET("/dashboard", reportHandler.AdminDashboard)

	admin.POST("/products", productHandler.Create)
	admin.PUT("/products/:id", productHandler.Update)
	admin.POST("/products/:id", productHandler.Update)
	admin.DELETE("/products/:id", productHandler.Delete)
	admin.PUT("/products/:id/stock", productHandler.UpdateStock)
	admin.POST("/uploads", productHandler.Upload)

	admin.POST("/categories", categoryHandler.Create)
	admin.PUT("/categories/:id", categoryHandler.Update)
	admin.POST("/categories/:id", categoryHandler.Update)
	admin.DELETE("/categories/:id", categoryHandler.Delete)

	admin.GET("/orders", orderHandler.List)
	admin.GET("/orders/:id", orderHandler.Show)
	admin.PUT("/orders/:id/status", orderHandler.UpdateStatus)
	admin.PUT("/orders/:id/payment-status", orderHandler.UpdatePaymentStatus)
	admin.POST("/orders/:id/cancel", orderHandler.Cancel)
	admin.DELETE("/orders/:id", orderHandler.Delete)

	reportGroup := g.Group("/reports", middleware.Auth(d.Auth), middleware.RequireRole(models.RoleAdmin))
	reportGroup.GET("/dashboard", reportHandler.Dashboard)
	reportGroup.GET("/sales", reportHandler.Sales)
	reportGroup.GET("/top-products", reportHandler.TopProducts)
	reportGroup.GET("/low-stock", reportHandler.LowStock)

	// Uploaded images
	if d.StorageDir != "" {
		e.Static("/storage", d.StorageDir)
	}

	e.GET("/metrics", metrics.Handler())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
