package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kwetu-safaris/safariops-backend/internal/database"
	"github.com/kwetu-safaris/safariops-backend/internal/handlers"
	"github.com/kwetu-safaris/safariops-backend/internal/logger"
	"github.com/kwetu-safaris/safariops-backend/internal/middleware"
	"github.com/kwetu-safaris/safariops-backend/internal/services"
	"github.com/kwetu-safaris/safariops-backend/internal/tripengine"
	"github.com/sirupsen/logrus"
)

func main() {
	logger.Setup()

	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, relying on environment")
	}

	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Redis backs per-trip locks and snapshot caching; the engine degrades
	// to transaction-only serialization without it
	if err := services.InitRedis(); err != nil {
		logrus.Warnf("Redis initialization warning: %v", err)
	}

	// Initialize Storage (S3 or local fallback) for issue photos
	if err := services.InitStorage(); err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub for the operations live feed
	hub := services.NewHub()
	go hub.Run()

	engine := tripengine.New(db)

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored issue photos when S3 is not configured
	r.Static("/uploads", "/app/uploads")

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			// User routes
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
			}

			// Driver-facing trip actions
			driver := protected.Group("/driver")
			{
				driver.GET("/trips", handlers.GetDriverTrips(db))
				driver.POST("/trips/:tripId/start", handlers.StartTrip(engine, hub))
				driver.POST("/trips/:tripId/navigation", handlers.StartNavigation(engine))
				driver.POST("/trips/:tripId/daily-check", handlers.DailyCheck(engine))
				driver.POST("/trips/:tripId/status", handlers.UpdateStatus(engine, hub))
				driver.POST("/trips/:tripId/issue", handlers.ReportIssue(engine, hub))
				driver.POST("/trips/:tripId/delay", handlers.MarkDelayed(engine, hub))
				driver.POST("/trips/:tripId/resume", handlers.ResumeTrip(engine, hub))
				driver.POST("/trips/:tripId/waypoints/advance", handlers.AdvanceWaypoint(engine, hub))
				driver.POST("/trips/:tripId/waypoints/:waypointId/skip", handlers.SkipWaypoint(engine))
				driver.POST("/trips/:tripId/waypoints/:waypointId/complete", handlers.CompleteWaypoint(engine))
				driver.POST("/trips/:tripId/communications", handlers.AppendCommunication(engine))
			}

			// Trip read surface and staff operations
			trips := protected.Group("/trips")
			{
				trips.POST("", handlers.CreateTrip(engine))
				trips.GET("/all", handlers.GetAllTrips(db))
				trips.GET("/:tripId", handlers.GetTrip(engine))
				trips.GET("/:tripId/status-history", handlers.GetStatusHistory(engine))
				trips.GET("/:tripId/communications", handlers.GetCommunications(engine))
				trips.POST("/:tripId/assign", handlers.AssignResources(engine))
				trips.POST("/:tripId/cancel", handlers.CancelTrip(engine, hub))
			}

			// Fleet
			vehicles := protected.Group("/vehicles")
			{
				vehicles.POST("", handlers.CreateVehicle(db))
				vehicles.GET("", handlers.GetVehicles(db))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
