package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"

	"github.com/matheusmosca/marketplace/internal/address"
	"github.com/matheusmosca/marketplace/internal/auth"
	"github.com/matheusmosca/marketplace/internal/cart"
	"github.com/matheusmosca/marketplace/internal/catalog"
	"github.com/matheusmosca/marketplace/internal/config"
	"github.com/matheusmosca/marketplace/internal/database"
	"github.com/matheusmosca/marketplace/internal/favorites"
	"github.com/matheusmosca/marketplace/internal/httpx"
	"github.com/matheusmosca/marketplace/internal/orders"
	"github.com/matheusmosca/marketplace/internal/reviews"
	"github.com/matheusmosca/marketplace/internal/sellers"
	"github.com/matheusmosca/marketplace/internal/telemetry"
)

func main() {
	slog.SetDefault(telemetry.NewLogger(os.Stdout, slog.LevelInfo))

	if err := run(); err != nil {
		slog.Error("❌ marketplace stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Initialize OpenTelemetry
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("⚠️ Error shutting down telemetry", "error", err)
		}
	}()

	// Initialize database
	pool, err := database.Connect(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(cfg.Database.DSN()); err != nil {
		return err
	}

	productCache, redisClient, err := initProductCache(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize dependencies
	tracer := otel.Tracer(cfg.ServiceName)

	authUseCase := auth.NewAuthUseCase(auth.NewUserRepository(pool), auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL))
	mw := auth.NewMiddleware(authUseCase)

	orderRepository := orders.NewOrderRepository(pool)
	orderUseCase, err := orders.NewOrderUseCase(orderRepository, productCache, orders.Pricing{
		ShippingFee: cfg.ShippingFee,
		TaxRate:     cfg.TaxRate,
	})
	if err != nil {
		return err
	}

	routes := []interface {
		RegisterRoutes(r *gin.RouterGroup, mw *auth.Middleware)
	}{
		auth.NewAuthHandler(authUseCase, tracer),
		catalog.NewCatalogHandler(catalog.NewCatalogUseCase(catalog.NewProductRepository(pool), productCache), tracer),
		cart.NewCartHandler(cart.NewCartUseCase(cart.NewCartRepository(pool))),
		address.NewAddressHandler(address.NewAddressUseCase(address.NewAddressRepository(pool))),
		orders.NewOrderHandler(orderUseCase, tracer),
		reviews.NewReviewHandler(reviews.NewReviewUseCase(reviews.NewReviewRepository(pool), productCache)),
		favorites.NewFavoriteHandler(favorites.NewFavoriteUseCase(favorites.NewFavoriteRepository(pool))),
		sellers.NewSellerHandler(sellers.NewSellerUseCase(sellers.NewSellerRepository(pool)), tracer),
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(httpx.Recovery(), gin.Logger(), otelgin.Middleware(cfg.ServiceName))

	r.GET("/health", healthCheck(pool, redisClient))
	api := r.Group("/api")
	for _, h := range routes {
		h.RegisterRoutes(api, mw)
	}
	r.NoRoute(httpx.NotFoundRoute)

	publisherDone := startOutboxPublisher(ctx, cfg, orderRepository)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("🚀 Marketplace API listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			<-publisherDone
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("🛑 Shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	stop()
	<-publisherDone
	return err
}

// initProductCache usa o Redis quando REDIS_ADDR está definido. Sem Redis o
// catálogo lê sempre do banco.
func initProductCache(ctx context.Context, cfg config.Config) (catalog.ProductCache, *redis.Client, error) {
	if cfg.RedisAddr == "" {
		slog.Info("ℹ️ REDIS_ADDR not set, product cache disabled")
		return catalog.NoopProductCache{}, nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("⚠️ Redis unavailable, product cache disabled", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return catalog.NoopProductCache{}, nil, nil
	}

	cache, err := catalog.NewRedisProductCache(client, cfg.ProductCacheTTL)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	slog.Info("✅ Connected to Redis product cache", "addr", cfg.RedisAddr)
	return cache, client, nil
}

// startOutboxPublisher publica order.placed no Kafka quando KAFKA_BROKERS está
// definido. O canal retornado fecha quando o publisher termina.
func startOutboxPublisher(ctx context.Context, cfg config.Config, store orders.OutboxStore) <-chan struct{} {
	done := make(chan struct{})
	if len(cfg.KafkaBrokers) == 0 {
		slog.Info("ℹ️ KAFKA_BROKERS not set, outbox events stay in the database")
		close(done)
		return done
	}

	writer := orders.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaOrdersTopic)
	publisher := orders.NewOutboxPublisher(store, writer, cfg.OutboxPollInterval)
	go func() {
		defer close(done)
		publisher.Run(ctx)
		if err := writer.Close(); err != nil {
			slog.Warn("⚠️ Error closing kafka writer", "error", err)
		}
	}()
	return done
}

func healthCheck(pool *pgxpool.Pool, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "OK", "database": "up"}
		code := http.StatusOK
		if err := pool.Ping(ctx); err != nil {
			status["status"], status["database"] = "DEGRADED", "down"
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["cache"] = "up"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				status["cache"] = "down"
			}
		}
		c.JSON(code, status)
	}
}
