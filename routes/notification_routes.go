package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/roomfinder/roomfinder_backend/controllers"
	"github.com/roomfinder/roomfinder_backend/middleware"
)

// RegisterNotificationRoutes registers all notification-related routes
func RegisterNotificationRoutes(e *echo.Echo, notificationController *controllers.NotificationController) {
	// Create authenticated notification routes group
	notificationGroup := e.Group("/api/notifications")
	notificationGroup.Use(middleware.JWTMiddleware())

	notificationGroup.GET("", notificationController.GetNotifications)
	notificationGroup.GET("/:id", notificationController.GetNotification)
	notificationGroup.PATCH("/:id/read", notificationController.MarkNotificationRead)
	notificationGroup.DELETE("/:id", notificationController.DeleteNotification)
	notificationGroup.DELETE("", notificationController.ClearNotifications)

	// FCM token update endpoint (requires authentication)
	authGroup := e.Group("/api")
	authGroup.Use(middleware.JWTMiddleware())
	authGroup.POST("/users/fcm-token", notificationController.UpdateFCMToken)
}
