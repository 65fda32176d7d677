package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-order-service/src/config"
	"go-order-service/src/controllers"
	"go-order-service/src/infrastructure/log"
	"go-order-service/src/infrastructure/metrics"
	"go-order-service/src/infrastructure/mongo"
	"go-order-service/src/infrastructure/mysql"
	"go-order-service/src/infrastructure/rabbitmq"
	"go-order-service/src/services/events"
	"go-order-service/src/services/order/domain"
	"go-order-service/src/services/order/domain/persistence"

	_ "go-order-service/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/swaggo/fiber-swagger"
)

//go:generate swag init -g main.go -o docs --parseDependency

// @title        Order Service API
// @version      1.0
// @description  Create, read and delete orders backed by MySQL.
// @BasePath     /
func main() {
	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := log.NewLogger(log.InfoLevel.String())

	configs, err := config.LoadConfig()
	if err != nil {
		logger.Fatal(ctx, "Failed to load configuration", err)
	}
	logger = log.NewLogger(configs.LogLevel)
	logger.Info(ctx, "Configuration loaded successfully")

	appMetrics := metrics.New()

	db, err := mysql.Open(ctx, configs)
	if err != nil {
		logger.Fatal(ctx, "Failed to connect to MySQL", err)
	}
	defer db.Close()
	logger.Info(ctx, "MySQL connection successful")

	// Optional event backends; each stays nil when not configured
	var eventStore events.EventStore
	if configs.MongoDBEnabled() {
		client, err := mongo.Connect(ctx, configs)
		if err != nil {
			logger.Fatal(ctx, "Failed to connect to MongoDB", err)
		}
		defer client.Disconnect(context.Background())
		eventStore = persistence.NewOrderEventRepository(mongo.Database(client, configs))
		logger.Info(ctx, "MongoDB connection successful")
	} else {
		logger.Warn(ctx, "MONGODB_CONNECTION_STRING not set, order event log disabled")
	}

	var broker events.Broker
	if configs.RabbitMQEnabled() {
		rabbitmqService, err := rabbitmq.NewRabbitMQService(configs.RabbitMQHostName, configs.RabbitMQExchange, events.RoutingKeys)
		if err != nil {
			logger.Fatal(ctx, "Failed to create RabbitMQ service", err)
		}
		defer rabbitmqService.Close()
		broker = rabbitmqService
		logger.Info(ctx, "RabbitMQ connection successful")
	} else {
		logger.Warn(ctx, "RABBITMQ_HOSTNAME not set, order events will not be published")
	}

	publisher := events.NewPublisher(broker, eventStore, logger, appMetrics)
	orderRepository := persistence.NewMySQLOrderRepository(db)
	orderService := domain.NewOrderService(logger, orderRepository, publisher, eventStore, appMetrics)

	orderController := controllers.NewOrderController(orderService)
	healthController := controllers.NewHealthController(func(ctx context.Context) error {
		return mysql.Ping(ctx, db)
	}, logger)

	app := fiber.New(fiber.Config{
		ReadBufferSize:  81920,
		WriteBufferSize: 81920,
		ServerHeader:    "Order-Service",
		ErrorHandler:    controllers.ErrorHandler(logger),
	})

	app.Use(cors.New(cors.Config{
		AllowCredentials: true,
		AllowOriginsFunc: func(_ string) bool { return true },
	}))
	app.Use(controllers.RequestLogger(logger, appMetrics))
	app.Use(recover.New())

	app.Get("/api/swagger/*", fiberSwagger.WrapHandler)
	app.Get("/metrics", adaptor.HTTPHandler(appMetrics.Handler()))
	healthController.Route(app)
	orderController.Route(app)

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	serverShutdown := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Starting server on "+configs.HTTPAddress())
		if err := app.Listen(configs.HTTPAddress()); err != nil {
			serverShutdown <- err
		}
	}()

	select {
	case <-c:
		logger.Info(ctx, "Shutdown signal received, shutting down gracefully...")
	case err := <-serverShutdown:
		logger.Exception(ctx, "Server error occurred", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Exception(ctx, "Server shutdown error", err)
	}

	logger.Info(ctx, "Server shutdown complete")
}
