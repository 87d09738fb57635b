package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Receiver models. A notification is addressed either to a room owner or to
// a booking user; the pair (receiverModel, receiver) is the identity key the
// websocket hub delivers on.
const (
	ReceiverModelUser  = "User"
	ReceiverModelOwner = "Owner"
)

// Notification types
const (
	NotificationTypeBookingCreated       = "booking-created"
	NotificationTypeBookingStatusChanged = "booking-status-changed"
	NotificationTypePayment              = "payment"
	NotificationTypeAlert                = "alert"
)

// Notification model
type Notification struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Receiver      primitive.ObjectID  `json:"receiver" bson:"receiver"`
	ReceiverModel string              `json:"receiverModel" bson:"receiverModel"` // "User" or "Owner"
	Message       string              `json:"message" bson:"message"`
	Type          string              `json:"type" bson:"type"`
	Read          bool                `json:"read" bson:"read"`
	BookingID     *primitive.ObjectID `json:"booking,omitempty" bson:"booking,omitempty"`
	RoomID        *primitive.ObjectID `json:"room,omitempty" bson:"room,omitempty"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
}

// IdentityKey returns the hub key notifications for this receiver are
// delivered on, e.g. "Owner-64fa...".
func (n *Notification) IdentityKey() string {
	return n.ReceiverModel + "-" + n.Receiver.Hex()
}

// ReceiverModelForUserType maps a JWT userType claim to a receiver model.
func ReceiverModelForUserType(userType string) string {
	if userType == UserTypeOwner {
		return ReceiverModelOwner
	}
	return ReceiverModelUser
}

// NotificationResponse model
type NotificationResponse struct {
	Status  int           `json:"status"`
	Message string        `json:"message"`
	Data    *Notification `json:"data,omitempty"`
}

// NotificationsResponse model for multiple notifications
type NotificationsResponse struct {
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Data    []Notification `json:"data,omitempty"`
}
