package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"farmmarket/internal/config"
	"farmmarket/internal/handlers"
	"farmmarket/internal/jobs"
	"farmmarket/internal/middleware"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
	"farmmarket/internal/services"
	"farmmarket/pkg/logger"
	"farmmarket/pkg/mailer"
	"farmmarket/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	zapLog, err := logger.Setup(cfg.DevMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLog.Sync()

	// --- Database ---
	db, err := openDatabase(cfg)
	if err != nil {
		zap.S().Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.IdempotencyKey{},
		&models.Message{},
		&models.Review{},
		&models.Notification{},
		&models.Subscription{},
		&models.Dispute{},
	); err != nil {
		zap.S().Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ ---
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		zap.S().Fatalf("Failed to initialize RabbitMQ client: %v", err)
	}
	defer mqClient.Close() // Ensure the connection is closed on exit

	// --- Mailer ---
	smtpMailer := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	})

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	idempotencyRepo := repositories.NewGORMIdempotencyRepository(db)
	messageRepo := repositories.NewGORMMessageRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)
	notificationRepo := repositories.NewGORMNotificationRepository(db)
	subscriptionRepo := repositories.NewGORMSubscriptionRepository(db)
	disputeRepo := repositories.NewGORMDisputeRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	userService := services.NewUserService(userRepo)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	checkoutService := services.NewCheckoutService(cartRepo, productRepo, orderRepo, idempotencyRepo, mqClient)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, notificationRepo, smtpMailer, mqClient)
	messageService := services.NewMessageService(messageRepo, userRepo)
	reviewService := services.NewReviewService(reviewRepo, productRepo, orderRepo)
	analyticsService := services.NewAnalyticsService(orderRepo)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, productRepo, notificationRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	disputeService := services.NewDisputeService(disputeRepo, orderRepo, notificationRepo)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, reviewService)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	orderHandler := handlers.NewOrderHandler(orderService)
	messageHandler := handlers.NewMessageHandler(messageService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(analyticsService, disputeService, userService)

	// --- Fiber app and routes ---
	app := fiber.New()
	app.Use(fiberlogger.New()) // Request logger

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	// Public catalog reads live under the buyer prefix but need no token.
	buyerPublic := apiV1.Group("/buyer")
	productHandler.RegisterPublicRoutes(buyerPublic)

	authRequired := middleware.AuthRequired(authService)

	buyer := apiV1.Group("/buyer", authRequired, middleware.RequireRole(models.RoleBuyer))
	cartHandler.RegisterRoutes(buyer)
	checkoutHandler.RegisterRoutes(buyer)
	orderHandler.RegisterBuyerRoutes(buyer)
	messageHandler.RegisterRoutes(buyer)
	reviewHandler.RegisterRoutes(buyer)
	subscriptionHandler.RegisterRoutes(buyer)
	notificationHandler.RegisterRoutes(buyer)
	adminHandler.RegisterDisputeRoutes(buyer)

	farmer := apiV1.Group("/farmer", authRequired, middleware.RequireRole(models.RoleFarmer))
	productHandler.RegisterFarmerRoutes(farmer)
	orderHandler.RegisterFarmerRoutes(farmer)
	messageHandler.RegisterRoutes(farmer)
	notificationHandler.RegisterRoutes(farmer)
	adminHandler.RegisterDisputeRoutes(farmer)

	admin := apiV1.Group("/admin", authRequired, middleware.RequireRole(models.RoleAdmin))
	orderHandler.RegisterAdminRoutes(admin)
	adminHandler.RegisterRoutes(admin)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Order event consumer ---
	// The MQ consumer logs order lifecycle events; downstream systems
	// (invoicing, fulfilment) bind their own queues to the same exchange.
	go func() {
		handler := func(msg amqp.Delivery) error {
			zap.S().Infof("order event %s: %s", msg.RoutingKey, string(msg.Body))
			return nil
		}
		if consumerErr := mqClient.ConsumeOrderEvents(handler); consumerErr != nil {
			zap.S().Errorf("Failed to start RabbitMQ consumer: %v", consumerErr)
		}
	}()

	// --- Background jobs ---
	scheduler, err := jobs.New(subscriptionService, notificationService)
	if err != nil {
		zap.S().Fatalf("Failed to initialize job scheduler: %v", err)
	}
	scheduler.Start()

	// --- Start HTTP Server ---
	zap.S().Infof("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			zap.S().Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	zap.L().Info("Shutting down server...")

	scheduler.Stop()
	if err := app.Shutdown(); err != nil {
		zap.S().Errorf("Error during Fiber shutdown: %v", err)
	}

	// RabbitMQ connection close is handled by defer in main
	zap.L().Info("Server gracefully stopped")
}

// openDatabase opens postgres in production or sqlite when configured for
// local development.
func openDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.DBDriver == "sqlite" {
		return gorm.Open(sqlite.Open(cfg.DatabaseDSN), &gorm.Config{})
	}
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
}
