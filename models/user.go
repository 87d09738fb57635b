package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User types carried in JWT claims. Owners control rooms and approve
// bookings; users request them.
const (
	UserTypeUser  = "user"
	UserTypeOwner = "owner"
)

// User model. Registration, login and password handling are owned by the
// auth subsystem; the booking core reads users for notification delivery
// (email, FCM token) and identity checks.
type User struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FullName  string             `json:"fullName" bson:"fullName"`
	Email     string             `json:"email" bson:"email"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	UserType  string             `json:"userType" bson:"userType"` // "user" or "owner"
	FCMToken  string             `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	IsActive  bool               `json:"isActive" bson:"isActive"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Identity is the resolved acting party of a request: who they are and
// which side of a booking they sit on.
type Identity struct {
	ID       primitive.ObjectID
	UserType string
}

// ReceiverModel returns the notification receiver model for this identity.
func (i Identity) ReceiverModel() string {
	return ReceiverModelForUserType(i.UserType)
}

// FCMTokenUpdateRequest model for registering a device push token
type FCMTokenUpdateRequest struct {
	FCMToken string `json:"fcmToken" validate:"required"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
