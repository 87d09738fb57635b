package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Room availability states. The status field is written exclusively through
// the availability service; everything else treats it as read-only.
const (
	RoomStatusAvailable = "Available"
	RoomStatusBooked    = "Booked"
)

// Room model. Listing, search and image handling live in a separate
// subsystem; the booking core only reads rooms and flips their status.
type Room struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID   primitive.ObjectID `json:"owner" bson:"owner"`
	Name      string             `json:"name" bson:"name"`
	Address   string             `json:"address,omitempty" bson:"address,omitempty"`
	Price     float64            `json:"price" bson:"price"`
	Status    string             `json:"status" bson:"status"` // "Available" or "Booked"
	Images    []string           `json:"images,omitempty" bson:"images,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// RoomsResponse model for multiple rooms
type RoomsResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    []Room `json:"data,omitempty"`
}
