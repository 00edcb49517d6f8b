package main

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
)

// @title Catalog Service API
// @version 1.0.0
// @description Inventory catalog service with product code uniqueness, partial updates and image storage

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8088
// @BasePath /api/v1

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

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client; caching is disabled when the connection fails
	var redisClient *redis.Client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
	} else {
		redisClient = redis.NewClient(redisOpts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
			redisClient = nil
		} else {
			log.Println("✓ Redis connected successfully")
		}
		cancel()
	}

	// Initialize repository and service
	productsRepo := repository.NewProductsRepository(db, redisClient)
	productService := services.NewProductService(productsRepo)

	// Initialize event publisher only if NATS_URL is set
	var eventsPublisher *events.Publisher
	if os.Getenv("NATS_URL") != "" {
		eventsPublisher, err = events.NewPublisher(logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Initialize handlers (events publisher may be nil if NATS not configured)
	productsHandler := handlers.NewProductsHandler(productService, cfg, eventsPublisher)
	transferHandler := handlers.NewTransferHandler(productService, logger)
	pagesHandler := handlers.NewPagesHandler(productService, cfg, logger)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())

	router.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	})
	router.LoadHTMLGlob("web/templates/*.html")
	router.Static("/static", "./web/static")

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck(db))

	// Server-rendered pages
	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/products") })
	pages := router.Group("/products")
	{
		pages.GET("", pagesHandler.ListPage)
		pages.GET("/new", pagesHandler.NewPage)
		pages.POST("", pagesHandler.CreateSubmit)
		pages.GET("/:id", pagesHandler.DetailPage)
		pages.GET("/:id/edit", pagesHandler.EditPage)
		pages.POST("/:id/edit", pagesHandler.EditSubmit)
		pages.GET("/:id/delete", pagesHandler.DeletePage)
		pages.POST("/:id/delete", pagesHandler.DeleteSubmit)
	}

	// JSON API
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", productsHandler.GetProducts)
			products.POST("", productsHandler.CreateProduct)
			products.GET("/export", transferHandler.ExportProducts)
			products.GET("/import/template", transferHandler.GetImportTemplate)
			products.POST("/import", transferHandler.ImportProducts)
			products.GET("/code/:code", productsHandler.GetProductByCode)
			products.GET("/:id", productsHandler.GetProduct)
			products.PUT("/:id", productsHandler.UpdateProduct)
			products.DELETE("/:id", productsHandler.DeleteProduct)
			products.GET("/:id/image", productsHandler.GetProductImage)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down catalog-service...")

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}

	log.Println("Catalog service stopped")
}
