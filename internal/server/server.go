package server

import (
	"context"
	"time"

	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/realtime"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer is built from.
type Deps struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Products   *services.ProductService
	Categories *services.CategoryService
	Carts      *services.CartService
	Checkout   *services.CheckoutService
	Orders     *services.OrderService
	Wishlist   *services.WishlistService
	Hub        *realtime.Hub
	Metrics    *metrics.Metrics
	Logger     *zap.Logger

	// Ping reports whether backing stores are reachable. Nil means healthy.
	Ping func(ctx context.Context) error
}

// New builds the Fiber app with every route mounted: the REST API under
// /api/v1, WebSocket topics under /ws, plus /health and /metrics.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "storefront",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestLogger(d.Logger))
	if d.Metrics != nil {
		app.Use(middleware.Metrics(d.Metrics))
		app.Get("/metrics", d.Metrics.Handler())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if d.Ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := d.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handlers.NewRealtimeHandler(d.Hub, d.Logger).RegisterRoutes(app)

	auth := middleware.AuthRequired(d.Auth, d.Logger)
	apiV1 := app.Group("/api/v1")

	// Public and mixed routes
	handlers.NewAuthHandler(d.Auth, d.Logger).RegisterRoutes(apiV1)
	handlers.NewProductHandler(d.Products, d.Logger).RegisterRoutes(apiV1, auth)
	handlers.NewCategoryHandler(d.Categories, d.Logger).RegisterRoutes(apiV1, auth)
	handlers.NewCartHandler(d.Carts, d.Logger).RegisterRoutes(apiV1)
	handlers.NewCheckoutHandler(d.Checkout, d.Logger).RegisterRoutes(apiV1, auth)

	// Protected routes (require JWT authentication)
	protected := apiV1.Group("", auth)
	handlers.NewOrderHandler(d.Orders, d.Logger).RegisterRoutes(protected)
	handlers.NewWishlistHandler(d.Wishlist, d.Logger).RegisterRoutes(protected)
	handlers.NewUserHandler(d.Users, d.Logger).RegisterRoutes(protected)

	return app
}
