package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/roomfinder/roomfinder_backend/controllers"
	"github.com/roomfinder/roomfinder_backend/middleware"
	"github.com/roomfinder/roomfinder_backend/models"
)

// RegisterBookingRoutes registers all booking-related routes
func RegisterBookingRoutes(e *echo.Echo, bookingController *controllers.BookingController) {
	// Create authenticated booking routes group
	bookingGroup := e.Group("/api/bookings")
	bookingGroup.Use(middleware.JWTMiddleware())

	// Requesting and releasing bookings (any authenticated user)
	bookingGroup.POST("/:roomId", bookingController.CreateBooking)
	bookingGroup.DELETE("/unbook/:roomId", bookingController.UnbookRoom)

	// Booking lifecycle transitions (owner approves/rejects/completes,
	// requester cancels; the service enforces who may do what)
	bookingGroup.PATCH("/:id/status", bookingController.UpdateBookingStatus)

	// Payment outcome recording (owners only)
	bookingGroup.PATCH("/:id/payment", bookingController.RecordPayment,
		middleware.RequireUserType(models.UserTypeOwner))

	// Booking queries for the logged-in user
	bookingGroup.GET("", bookingController.GetUserBookings)
	bookingGroup.GET("/user-rooms", bookingController.GetUserBookedRooms)
	bookingGroup.GET("/user-booking/:roomId", bookingController.CheckUserBookedRoom)
}
