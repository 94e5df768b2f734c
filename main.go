package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/metrics"
	"storefront/internal/payments"
	"storefront/internal/realtime"
	"storefront/internal/repositories"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/pkg/kafka"
	"storefront/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	defer sqlDB.Close()
	logger.Info("database ready", zap.String("driver", cfg.DBDriver))

	// --- Cart cache ---
	var cartCache cache.CartCache = cache.NopCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, cart cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			cartCache = cache.NewRedisCache(rdb, cfg.CartCacheTTL)
			logger.Info("cart cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	// --- Events and realtime ---
	hub := realtime.NewHub(0, logger)
	publisher, subscriber, closeBroker, err := openBroker(cfg, logger)
	if err != nil {
		return err
	}
	defer closeBroker()

	var stockNotifier services.StockNotifier = hub
	if subscriber != nil {
		if err := events.RelayStockUpdates(ctx, subscriber, hub, logger); err != nil {
			return fmt.Errorf("failed to subscribe to stock updates: %w", err)
		}
		stockNotifier = events.NewStockNotifier(publisher)
	}

	// --- Payments ---
	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is not set; checkouts will fail")
	}
	stripeGateway := payments.NewStripeGateway(payments.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		SuccessURL:    cfg.CheckoutSuccessURL,
		CancelURL:     cfg.CheckoutCancelURL,
		Currency:      cfg.Currency,
	}, nil, logger)
	gateway := payments.NewBreakerGateway(stripeGateway, 5, 30*time.Second, logger)

	// --- Repositories ---
	tx := repositories.NewGORMTransactor(db)
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	wishlistRepo := repositories.NewGORMWishlistRepository(db)

	// --- Services ---
	m := metrics.New()
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, logger)
	cartService := services.NewCartService(tx, cartRepo, productRepo, cartCache, m, logger)
	deps := server.Deps{
		Auth:       authService,
		Users:      services.NewUserService(userRepo),
		Products:   services.NewProductService(productRepo, categoryRepo, stockNotifier, m, logger),
		Categories: services.NewCategoryService(categoryRepo),
		Carts:      cartService,
		Checkout: services.NewCheckoutService(tx, cartService, orderRepo, gateway, publisher, m, logger,
			cfg.PaymentTimeout),
		Orders:   services.NewOrderService(orderRepo),
		Wishlist: services.NewWishlistService(wishlistRepo, productRepo),
		Hub:      hub,
		Metrics:  m,
		Logger:   logger,
		Ping:     sqlDB.PingContext,
	}

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}

	app := server.New(deps)

	// --- Start HTTP Server ---
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.AppPort))
		serverErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("error during fiber shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
	return nil
}

// openBroker connects the configured message broker. With BROKER=none events
// are dropped and the subscriber is nil. The returned func releases the
// connections.
func openBroker(cfg *config.Config, logger *zap.Logger) (events.Publisher, events.Subscriber, func(), error) {
	switch cfg.Broker {
	case "rabbitmq":
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		logger.Info("using rabbitmq broker")
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close rabbitmq client", zap.Error(err))
			}
		}
		return events.NewRabbitPublisher(client), events.NewRabbitSubscriber(client, logger), closeFn, nil
	case "kafka":
		client := kafka.NewClient(strings.Join(cfg.KafkaBrokers, ","))
		if !client.Enabled() {
			return nil, nil, nil, errors.New("BROKER=kafka but KAFKA_BROKERS is empty")
		}
		logger.Info("using kafka broker", zap.Strings("brokers", client.Brokers))
		// Every instance reads with its own group so stock updates reach all of them.
		groupID := "storefront-" + uuid.NewString()
		publisher := events.NewKafkaPublisher(client)
		subscriber := events.NewKafkaSubscriber(client, groupID, logger)
		closeFn := func() {
			if err := errors.Join(subscriber.Close(), publisher.Close()); err != nil {
				logger.Warn("failed to close kafka clients", zap.Error(err))
			}
		}
		return publisher, subscriber, closeFn, nil
	case "none", "":
		return events.NopPublisher{}, nil, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported broker %q", cfg.Broker)
	}
}
