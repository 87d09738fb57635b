package services

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to the HTTP layer. Controllers match with
// errors.Is and map each to a status code; everything else is a 500.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Named conflict cases. Both are ErrConflict to the status mapper but carry
// distinct, user-facing causes.
var (
	ErrDuplicateBooking = fmt.Errorf("an active booking already exists for this user and room: %w", ErrConflict)
	ErrRoomUnavailable  = fmt.Errorf("room is already booked: %w", ErrConflict)
)
