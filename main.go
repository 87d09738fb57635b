package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/roomfinder/roomfinder_backend/config"
	"github.com/roomfinder/roomfinder_backend/controllers"
	"github.com/roomfinder/roomfinder_backend/middleware"
	"github.com/roomfinder/roomfinder_backend/repositories"
	"github.com/roomfinder/roomfinder_backend/routes"
	"github.com/roomfinder/roomfinder_backend/services"
	"github.com/roomfinder/roomfinder_backend/websocket"
)

// Custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load environment variables
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Initialize Firebase (optional, push delivery only)
	config.InitFirebase()

	// Initialize Redis connection (optional, cross-instance fanout)
	redisClient := config.ConnectRedis()

	// Connect to MongoDB
	client := config.ConnectDB()

	// Repositories
	bookingRepo := repositories.NewBookingRepository(client)
	roomRepo := repositories.NewRoomRepository(client)
	notificationRepo := repositories.NewNotificationRepository(client)
	userRepo := repositories.NewUserRepository(client)
	txRunner := repositories.NewMongoTxRunner(client)

	// WebSocket hub and notification dispatcher
	wsHub := websocket.NewHub()
	dispatcher := services.NewDispatcher(wsHub, redisClient, client)
	go dispatcher.Run()

	subscribeCtx, stopSubscribe := context.WithCancel(context.Background())
	defer stopSubscribe()
	if redisClient != nil {
		go dispatcher.SubscribeLoop(subscribeCtx)
	}

	// Services
	availabilityService := services.NewAvailabilityService(roomRepo, bookingRepo)
	notificationService := services.NewNotificationService(notificationRepo, dispatcher)
	bookingService := services.NewBookingService(bookingRepo, roomRepo, notificationRepo, availabilityService, txRunner, dispatcher)

	// Reconcile room statuses against bookings before serving traffic,
	// then periodically in the background
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	fixed, err := availabilityService.Reconcile(startupCtx)
	cancelStartup()
	if err != nil {
		log.Printf("Warning: room status reconciliation failed: %v", err)
	} else if fixed > 0 {
		log.Printf("Reconciled %d room statuses", fixed)
	}

	go func() {
		for {
			time.Sleep(10 * time.Minute)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := availabilityService.Reconcile(ctx); err != nil {
				log.Printf("Room status reconciliation failed: %v", err)
			}
			cancel()
		}
	}()

	// Initialize Echo instance
	e := echo.New()

	// Register custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"https://roomfinder.app", "wss://roomfinder.app"},
		AllowInlineJS:  false,
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "RoomFinder Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Track user activity on authenticated routes
	authGroup := e.Group("/api")
	authGroup.Use(middleware.JWTMiddleware())
	authGroup.Use(middleware.ActivityTracker(client))

	// Controllers
	bookingController := controllers.NewBookingController(bookingService)
	notificationController := controllers.NewNotificationController(notificationService, userRepo)

	// Routes
	routes.SetupRoutes(e, wsHub, bookingController, notificationController)

	// Background task to mark users inactive after prolonged inactivity
	go func() {
		for {
			middleware.MarkInactiveUsers(client, 30*time.Minute)
			time.Sleep(5 * time.Minute)
		}
	}()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil {
			e.Logger.Info("Shutting down the server")
		}
	}()

	// Graceful shutdown: stop accepting requests, drain queued
	// notifications, then close websocket connections
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Error(err)
	}

	stopSubscribe()
	dispatcher.Shutdown()
	wsHub.Shutdown()

	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Printf("MongoDB disconnect error: %v", err)
	}
	config.CloseRedis()
}
