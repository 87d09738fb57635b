package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking statuses. Rejected, cancelled and completed are terminal.
const (
	BookingStatusPending   = "pending"
	BookingStatusApproved  = "approved"
	BookingStatusRejected  = "rejected"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Payment statuses, independent of the booking status axis.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// bookingTransitions defines the permitted status transitions. A status with
// no entry is terminal.
var bookingTransitions = map[string][]string{
	BookingStatusPending:  {BookingStatusApproved, BookingStatusRejected},
	BookingStatusApproved: {BookingStatusCancelled, BookingStatusCompleted},
}

// Booking model
type Booking struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID        primitive.ObjectID `json:"room" bson:"room"`
	UserID        primitive.ObjectID `json:"user" bson:"user"`
	Status        string             `json:"status" bson:"status"`               // "pending", "approved", "rejected", "cancelled", "completed"
	PaymentStatus string             `json:"paymentStatus" bson:"paymentStatus"` // "pending", "completed", "failed"
	BookingDate   time.Time          `json:"bookingDate" bson:"bookingDate"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// IsValidBookingStatus reports whether s is a known booking status.
func IsValidBookingStatus(s string) bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected,
		BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// IsValidPaymentStatus reports whether s is a known payment status.
func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// IsTerminalBookingStatus reports whether s permits no further transitions.
func IsTerminalBookingStatus(s string) bool {
	return IsValidBookingStatus(s) && len(bookingTransitions[s]) == 0
}

// CanTransitionBooking reports whether a booking may move from one status to
// another.
func CanTransitionBooking(from, to string) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsActiveBookingStatus reports whether s counts against the one active
// booking per user and room rule.
func IsActiveBookingStatus(s string) bool {
	return s == BookingStatusPending || s == BookingStatusApproved
}

// BookingStatusUpdateRequest model for updating booking status
type BookingStatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// PaymentStatusUpdateRequest model for recording a payment result
type PaymentStatusUpdateRequest struct {
	PaymentStatus string `json:"paymentStatus" validate:"required"`
}

// BookingResponse model
type BookingResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Data    *Booking `json:"data,omitempty"`
}

// BookingsResponse model for multiple bookings
type BookingsResponse struct {
	Status  int       `json:"status"`
	Message string    `json:"message"`
	Data    []Booking `json:"data,omitempty"`
}
