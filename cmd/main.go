package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"marketplace-backend/internal/api"
	"marketplace-backend/internal/client"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/notifier"
	"marketplace-backend/internal/payment"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/service"
	"marketplace-backend/migrations"
)

func connectDB(host, port, user, pass, dbname string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("Connected to DB %s", dbname)
				return db, nil
			}
		}
		log.Printf("Retry %d: failed to connect to DB %s (%s:%s): %v", i+1, dbname, host, port, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v", dbname, host, port, err)
}

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	db, err := connectDB(settings.DBHost, settings.DBPort, settings.DBUser, settings.DBPass, settings.DBName)
	if err != nil {
		panic(err)
	}

	if err := migrations.AutoMigrate(db, 3); err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: settings.RedisAddr,
	})

	kafkaWriter := config.NewKafkaWriter(settings.KafkaBrokers, "notification-topic")
	sink := notifier.New(kafkaWriter)

	orderRepo := repository.NewOrderRepository(db)
	cachedRepo := repository.NewCachedOrderRepository(orderRepo, rdb)

	pricingClient := client.NewPricingClient(settings.PricingServiceURL)
	inventoryClient := client.NewInventoryClient(settings.InventoryServiceURL)
	shippingClient := client.NewShippingClient(settings.ShippingServiceURL)
	couponClient := client.NewCouponClient(settings.CouponServiceURL)
	addressClient := client.NewAddressClient(settings.UserServiceURL)

	gateway := payment.NewHTTPGateway(settings.GatewayBaseURL, settings.GatewaySecretKey)
	coordinator := payment.NewCoordinator(gateway, cachedRepo, inventoryClient, sink, settings.PaymentRedirectURL)

	checkoutService := service.NewCheckoutService(cachedRepo, pricingClient, inventoryClient,
		shippingClient, couponClient, addressClient, coordinator, rdb)
	orderService := service.NewOrderService(cachedRepo, inventoryClient, sink, repository.ScopeColumns)

	orderHandler := api.NewOrderHandler(checkoutService, orderService)
	webhookHandler := api.NewWebhookHandler(coordinator, settings.WebhookSecret)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(20),
				Burst:     50,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	// Provider callbacks authenticate by signature, not by JWT.
	e.POST("/payments/webhook", webhookHandler.HandleWebhook)
	e.POST("/payments/gateway/webhook", webhookHandler.HandleGatewayWebhook)

	e.GET("/orders/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "marketplace-backend",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	protected := e.Group("", api.NewJWTMiddleware(settings.JWTSecret))
	protected.POST("/orders", orderHandler.CreateOrders)
	protected.GET("/orders", orderHandler.ListOwnOrders)
	protected.GET("/orders/admin", orderHandler.ListOrders)
	protected.GET("/orders/dashboard", orderHandler.ListOrders)
	protected.PATCH("/orders/:id/status", orderHandler.UpdateOrderStatus)
	protected.POST("/orders/:id/cancel", orderHandler.CancelOrder)
	protected.PATCH("/deliveries/:id/status", orderHandler.UpdateDeliveryStatus)

	e.Logger.Fatal(e.Start(":" + settings.Port))
}
