package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"home-service-server/config"
	"home-service-server/database"
	"home-service-server/jobs"
	"home-service-server/middleware"
	"home-service-server/routes"
	"home-service-server/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()

	// Initialize database
	if err := database.Initialize(config.AppConfig.Database.URL); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Wire the booking engine
	bookingStore := database.NewBookingStore(database.DB)
	directory := database.NewDirectory(database.DB)
	notifier := services.NewNotificationService()
	availability := services.NewAvailabilityChecker(bookingStore, config.AppConfig.Booking)
	matching := services.NewMatchingEngine(bookingStore, directory, availability, notifier, config.AppConfig.Booking)
	bookingService := services.NewBookingService(bookingStore, directory, notifier, config.AppConfig.Booking)
	routes.Init(matching, bookingService, availability, bookingStore, directory)

	// Set Gin mode
	if config.AppConfig.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RateLimitMiddleware())
	middleware.StartCleanup(time.Hour)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:8081"}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Home Service Server is running",
			"time":    time.Now().UTC(),
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		// Public catalog reads
		routes.RegisterPublicRoutes(api)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		routes.RegisterProtectedRoutes(protected)

		// Admin routes
		adminRoutes := api.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
		routes.RegisterAdminRoutes(adminRoutes)
	}

	// Start background jobs
	staleJob := jobs.NewStaleBookingJob(bookingService, time.Minute)
	staleJob.Start()
	defer staleJob.Stop()

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = config.AppConfig.Server.Port
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run("0.0.0.0:" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
