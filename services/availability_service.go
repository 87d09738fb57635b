package services

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomfinder/roomfinder_backend/models"
	"github.com/roomfinder/roomfinder_backend/repositories"
)

// AvailabilityService is the only writer of a room's availability flag. It
// keeps the invariant that a room is Booked exactly when one approved
// booking exists for it.
type AvailabilityService struct {
	rooms    repositories.RoomStore
	bookings repositories.BookingStore
}

func NewAvailabilityService(rooms repositories.RoomStore, bookings repositories.BookingStore) *AvailabilityService {
	return &AvailabilityService{rooms: rooms, bookings: bookings}
}

// Reserve marks the room Booked. Returns ErrRoomUnavailable when another
// approval got there first; the caller's transaction must abort so the
// booking status flip rolls back with it.
func (s *AvailabilityService) Reserve(ctx context.Context, roomID primitive.ObjectID) error {
	ok, err := s.rooms.Reserve(ctx, roomID)
	if err != nil {
		return fmt.Errorf("reserving room %s: %w", roomID.Hex(), err)
	}
	if !ok {
		return ErrRoomUnavailable
	}
	return nil
}

// Release marks the room Available again. Other pending bookings for the
// room are left untouched; they simply become approvable again.
func (s *AvailabilityService) Release(ctx context.Context, roomID primitive.ObjectID) error {
	if err := s.rooms.Release(ctx, roomID); err != nil {
		return fmt.Errorf("releasing room %s: %w", roomID.Hex(), err)
	}
	return nil
}

// Reconcile rebuilds every room's status from the booking table. Room
// status is a derived cache of "does an approved booking exist"; running
// this at startup and on a schedule bounds the inconsistency window after a
// crash mid-write. Returns the number of rooms corrected.
func (s *AvailabilityService) Reconcile(ctx context.Context) (int, error) {
	ids, err := s.rooms.AllIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing rooms: %w", err)
	}

	fixed := 0
	for _, id := range ids {
		// Observe the room before scanning bookings: an approval landing
		// after this read flips the status, so the guarded write below
		// misses instead of stomping the fresh reservation.
		room, err := s.rooms.FindByID(ctx, id)
		if err != nil {
			return fixed, err
		}
		if room == nil {
			continue
		}

		approved, err := s.bookings.FindApprovedByRoom(ctx, id)
		if err != nil {
			return fixed, fmt.Errorf("loading approved bookings for room %s: %w", id.Hex(), err)
		}

		desired := models.RoomStatusAvailable
		if len(approved) > 0 {
			desired = models.RoomStatusBooked
		}
		if room.Status == desired {
			continue
		}

		ok, err := s.rooms.UpdateStatus(ctx, id, room.Status, desired)
		if err != nil {
			return fixed, err
		}
		if !ok {
			// Status changed underneath us; the next pass re-checks.
			continue
		}
		log.Printf("Reconciled room %s: status %q corrected to %q", id.Hex(), room.Status, desired)
		fixed++
	}
	return fixed, nil
}
