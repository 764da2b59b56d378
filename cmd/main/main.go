package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/amish-harsoor/inventory/internal/config"
	"github.com/amish-harsoor/inventory/internal/events"
	"github.com/amish-harsoor/inventory/internal/handlers"
	"github.com/amish-harsoor/inventory/internal/ledger"
	"github.com/amish-harsoor/inventory/internal/metrics"
	"github.com/amish-harsoor/inventory/internal/middleware"
	"github.com/amish-harsoor/inventory/internal/models"
	"github.com/amish-harsoor/inventory/internal/repository"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Location{},
		&models.InventoryRecord{},
		&models.StockMovement{},
		&models.Reservation{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize NATS event publisher (optional - graceful degradation if NATS unavailable)
	var eventPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("Warning: Failed to initialize NATS event publisher: %v", err)
			log.Println("Continuing without event publishing...")
			eventPublisher = nil
		} else {
			log.Println("✓ Connected to NATS JetStream for event publishing")
			defer eventPublisher.Close()
		}
	} else {
		log.Println("NATS_URL not configured, event publishing disabled")
	}

	// Initialize Redis read cache (optional)
	redisClient := config.InitRedis(cfg)
	if redisClient != nil {
		log.Println("✓ Redis read cache enabled")
	} else {
		log.Println("REDIS_ADDR not configured, read cache disabled")
	}

	// Initialize repository and ledger
	repo := repository.New(db, redisClient)
	opts := ledger.Options{
		LockWait: cfg.LockWait,
		Cache:    repo,
		Logger:   logger,
	}
	if eventPublisher != nil {
		opts.Events = eventPublisher
	}
	ledgerCore := ledger.New(db, repo, opts)

	// Initialize handlers
	handler := handlers.New(ledgerCore, repo, eventPublisher, logger, cfg.DefaultPageSize, cfg.MaxPageSize)

	// Background sweep: expire overdue reservations on an interval
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				released, err := ledgerCore.ReleaseExpired(sweepCtx)
				if err != nil {
					logger.WithError(err).Warn("Reservation sweep failed")
				} else if released > 0 {
					logger.WithField("released", released).Info("Expired reservations released")
				}
			}
		}
	}()

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")

	// Movement routes
	movements := api.Group("/movements")
	{
		movements.POST("/receive", handler.ReceiveStock)
		movements.POST("/ship", handler.ShipStock)
		movements.POST("/transfer", handler.TransferStock)
		movements.GET("", handler.ListMovements)
		movements.GET("/:id", handler.GetMovement)
	}

	// Inventory routes
	inventory := api.Group("/inventory")
	{
		inventory.GET("", handler.ListInventory)
		inventory.POST("/adjust", handler.AdjustStock)
		inventory.GET("/availability", handler.CheckAvailability)
		inventory.PUT("/reorder-levels", handler.SetReorderLevels)
		inventory.GET("/:productId/:locationId", handler.GetInventory)
	}

	// Reservation routes
	reservations := api.Group("/reservations")
	{
		reservations.POST("", handler.CreateReservation)
		reservations.GET("", handler.ListReservations)
		reservations.GET("/:id", handler.GetReservation)
		reservations.DELETE("/:id", handler.ReleaseReservation)
		reservations.PUT("/:id/fulfill", handler.FulfillReservation)
	}

	// Alert routes
	alerts := api.Group("/alerts")
	{
		alerts.GET("", handler.ListAlerts)
		alerts.GET("/low-stock", handler.LowStockAlerts)
	}

	// Report routes
	reports := api.Group("/reports")
	{
		reports.GET("/inventory-summary", handler.InventorySummaryReport)
		reports.GET("/stock-movement", handler.StockMovementReport)
		reports.GET("/valuation", handler.ValuationReport)
	}

	// Product routes
	products := api.Group("/products")
	{
		products.POST("", handler.CreateProduct)
		products.GET("", handler.ListProducts)
		products.GET("/:id", handler.GetProduct)
		products.PUT("/:id", handler.UpdateProduct)
	}

	// Location routes
	locations := api.Group("/locations")
	{
		locations.POST("", handler.CreateLocation)
		locations.GET("", handler.ListLocations)
		locations.GET("/:id", handler.GetLocation)
		locations.PUT("/:id", handler.UpdateLocation)
		locations.DELETE("/:id", handler.DeactivateLocation)
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Inventory service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down inventory-service...")
	stopSweep()
	log.Println("Inventory service stopped")
}
