package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomfinder/roomfinder_backend/middleware"
	"github.com/roomfinder/roomfinder_backend/models"
	"github.com/roomfinder/roomfinder_backend/services"
)

// BookingController handles booking-related API endpoints
type BookingController struct {
	bookings *services.BookingService
}

// NewBookingController creates a new booking controller
func NewBookingController(bookings *services.BookingService) *BookingController {
	return &BookingController{bookings: bookings}
}

// identityFromToken resolves the acting identity from the JWT claims set by
// the auth middleware.
func identityFromToken(ctx echo.Context) (models.Identity, bool) {
	claims := middleware.GetUserFromToken(ctx)
	if claims == nil {
		return models.Identity{}, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Identity{}, false
	}
	return models.Identity{ID: id, UserType: claims.UserType}, true
}

// respondServiceError maps the service error taxonomy to HTTP responses.
// Conflicts and invalid transitions are expected concurrent-use outcomes
// and get their own actionable messages, never a generic 500.
func respondServiceError(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, services.ErrDuplicateBooking):
		status, message = http.StatusConflict, "You already have an active booking for this room"
	case errors.Is(err, services.ErrRoomUnavailable):
		status, message = http.StatusConflict, "This room is already booked"
	case errors.Is(err, services.ErrConflict):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, services.ErrInvalidTransition):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, services.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrStorageUnavailable):
		status, message = http.StatusServiceUnavailable, "Storage is temporarily unavailable, please retry"
	}

	return ctx.JSON(status, models.Response{
		Status:  status,
		Message: message,
	})
}

// CreateBooking handles the creation of a new booking
func (c *BookingController) CreateBooking(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	roomID, err := primitive.ObjectIDFromHex(ctx.Param("roomId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid room ID",
		})
	}

	booking, err := c.bookings.CreateBooking(ctx.Request().Context(), actor.ID, roomID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, models.BookingResponse{
		Status:  http.StatusCreated,
		Message: "Booking created successfully",
		Data:    booking,
	})
}

// UpdateBookingStatus updates the status of a booking
func (c *BookingController) UpdateBookingStatus(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	var request models.BookingStatusUpdateRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if !models.IsValidBookingStatus(request.Status) {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid status. Use 'pending', 'approved', 'rejected', 'cancelled' or 'completed'",
		})
	}

	booking, err := c.bookings.UpdateStatus(ctx.Request().Context(), bookingID, request.Status, actor)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.BookingResponse{
		Status:  http.StatusOK,
		Message: "Booking status updated successfully",
		Data:    booking,
	})
}

// RecordPayment records the payment outcome for a booking
func (c *BookingController) RecordPayment(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	var request models.PaymentStatusUpdateRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if !models.IsValidPaymentStatus(request.PaymentStatus) {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid payment status. Use 'pending', 'completed' or 'failed'",
		})
	}

	booking, err := c.bookings.RecordPayment(ctx.Request().Context(), bookingID, request.PaymentStatus, actor)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.BookingResponse{
		Status:  http.StatusOK,
		Message: "Payment status recorded successfully",
		Data:    booking,
	})
}

// GetUserBookings retrieves all bookings for the authenticated user
func (c *BookingController) GetUserBookings(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookings, err := c.bookings.ListForUser(ctx.Request().Context(), actor.ID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.BookingsResponse{
		Status:  http.StatusOK,
		Message: "Bookings retrieved successfully",
		Data:    bookings,
	})
}

// GetUserBookedRooms retrieves the rooms the user holds approved bookings for
func (c *BookingController) GetUserBookedRooms(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	rooms, err := c.bookings.ListApprovedRooms(ctx.Request().Context(), actor.ID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.RoomsResponse{
		Status:  http.StatusOK,
		Message: "Booked rooms retrieved successfully",
		Data:    rooms,
	})
}

// CheckUserBookedRoom reports whether the logged-in user has booked the room
func (c *BookingController) CheckUserBookedRoom(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	roomID, err := primitive.ObjectIDFromHex(ctx.Param("roomId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid room ID",
		})
	}

	booked, err := c.bookings.HasApprovedBooking(ctx.Request().Context(), actor.ID, roomID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Booking check completed",
		Data:    map[string]bool{"booked": booked},
	})
}

// UnbookRoom cancels the user's active booking on a room
func (c *BookingController) UnbookRoom(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	roomID, err := primitive.ObjectIDFromHex(ctx.Param("roomId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid room ID",
		})
	}

	booking, err := c.bookings.CancelByRoom(ctx.Request().Context(), actor.ID, roomID)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.BookingResponse{
		Status:  http.StatusOK,
		Message: "Booking cancelled successfully",
		Data:    booking,
	})
}
