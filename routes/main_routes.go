package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/roomfinder/roomfinder_backend/controllers"
	"github.com/roomfinder/roomfinder_backend/websocket"
)

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, hub *websocket.Hub, bookingController *controllers.BookingController, notificationController *controllers.NotificationController) {
	RegisterBookingRoutes(e, bookingController)
	RegisterNotificationRoutes(e, notificationController)
	RegisterWebSocketRoutes(e, hub)
}
