package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vehicle-rental-server/config"
	"vehicle-rental-server/database"
	"vehicle-rental-server/jobs"
	"vehicle-rental-server/middleware"
	"vehicle-rental-server/routes"
	"vehicle-rental-server/services"
	ws "vehicle-rental-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Set Gin mode
	if config.AppConfig.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security headers (must be first)
	router.Use(middleware.SecurityHeadersMiddleware())

	// Input validation
	router.Use(middleware.InputValidationMiddleware())

	// Rate limiting
	router.Use(middleware.RateLimitMiddleware())

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Webhook-Secret"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Vehicle Rental Server is running",
			"time":    time.Now().UTC(),
		})
	})

	// WebSocket hub: real-time chat delivery plus presence tracking for
	// notification suppression
	hub := ws.NewHub()
	go hub.Run()

	// Domain services share one event bus; the dispatcher is the only consumer
	eventBus := services.NewEventBus(256)

	bookingEngine := services.NewBookingEngine(
		database.DB,
		eventBus,
		config.AppConfig.Pricing.CommissionRate,
		config.AppConfig.Pricing.ServiceFeeRate,
	)
	chatService := services.NewChatService(database.DB, eventBus, hub)

	dispatcher := services.NewNotificationDispatcher(database.DB, eventBus, hub)
	dispatcher.Start()

	// API routes
	routes.BookingRoutes(router, bookingEngine)
	routes.ChatRoutes(router, chatService, hub)
	routes.NotificationRoutes(router)
	routes.PaymentRoutes(router, bookingEngine)

	// Background jobs
	reminderJob := jobs.NewReminderJob(database.DB)
	reminderJob.Start()
	defer reminderJob.Stop()

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
