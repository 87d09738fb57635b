package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomfinder/roomfinder_backend/models"
	"github.com/roomfinder/roomfinder_backend/repositories"
)

// BookingService orchestrates the booking lifecycle: it sequences the
// booking write, the room availability flip and the notification append as
// one transaction, then hands the committed notification to the fanout.
type BookingService struct {
	bookings      repositories.BookingStore
	rooms         repositories.RoomStore
	notifications repositories.NotificationStore
	availability  *AvailabilityService
	tx            repositories.TxRunner
	dispatcher    *Dispatcher
}

func NewBookingService(
	bookings repositories.BookingStore,
	rooms repositories.RoomStore,
	notifications repositories.NotificationStore,
	availability *AvailabilityService,
	tx repositories.TxRunner,
	dispatcher *Dispatcher,
) *BookingService {
	return &BookingService{
		bookings:      bookings,
		rooms:         rooms,
		notifications: notifications,
		availability:  availability,
		tx:            tx,
		dispatcher:    dispatcher,
	}
}

// CreateBooking registers a pending booking for the user on the room and
// notifies the room's owner. Fails with a conflict when the user already
// holds an active booking for the room or the room is Booked.
func (s *BookingService) CreateBooking(ctx context.Context, userID, roomID primitive.ObjectID) (*models.Booking, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", roomID.Hex(), ErrNotFound)
	}
	if room.Status == models.RoomStatusBooked {
		return nil, ErrRoomUnavailable
	}

	existing, err := s.bookings.FindActiveByUserAndRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateBooking
	}

	now := time.Now()
	booking := &models.Booking{
		ID:            primitive.NewObjectID(),
		RoomID:        roomID,
		UserID:        userID,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		BookingDate:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	notification := &models.Notification{
		ID:            primitive.NewObjectID(),
		Receiver:      room.OwnerID,
		ReceiverModel: models.ReceiverModelOwner,
		Message:       fmt.Sprintf("New booking request for %s", room.Name),
		Type:          models.NotificationTypeBookingCreated,
		BookingID:     &booking.ID,
		RoomID:        &room.ID,
		CreatedAt:     now,
	}

	// The owner's durable notification commits with the booking or not at
	// all; a disconnected owner must be able to find it later.
	err = s.tx.Atomically(ctx, func(ctx context.Context) error {
		if err := s.bookings.Insert(ctx, booking); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrDuplicateBooking
			}
			return err
		}
		return s.notifications.Insert(ctx, notification)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Enqueue(*notification)
	return booking, nil
}

// UpdateStatus moves a booking through the state machine on behalf of
// actor. The owner decides approved/rejected and may cancel or complete an
// approved stay; the requester may only cancel. Approving reserves the
// room, leaving the approved state releases it, and both flips share the
// booking write's transaction.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID primitive.ObjectID, newStatus string, actor models.Identity) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID.Hex(), ErrNotFound)
	}

	room, err := s.rooms.FindByID(ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", booking.RoomID.Hex(), ErrNotFound)
	}

	isOwner := actor.UserType == models.UserTypeOwner && actor.ID == room.OwnerID
	isRequester := actor.UserType == models.UserTypeUser && actor.ID == booking.UserID
	switch {
	case !isOwner && !isRequester:
		return nil, fmt.Errorf("booking %s belongs to another party: %w", bookingID.Hex(), ErrForbidden)
	case isRequester && newStatus != models.BookingStatusCancelled:
		return nil, fmt.Errorf("requesters may only cancel bookings: %w", ErrForbidden)
	}

	prev := booking.Status
	if !models.CanTransitionBooking(prev, newStatus) {
		return nil, fmt.Errorf("booking is %s, cannot become %s: %w", prev, newStatus, ErrInvalidTransition)
	}

	notification := s.statusNotification(booking, room, newStatus, isOwner)

	err = s.tx.Atomically(ctx, func(ctx context.Context) error {
		// Compare-and-swap on the prior status: of two racing transitions,
		// the loser no longer matches and observes InvalidTransition.
		ok, err := s.bookings.UpdateStatus(ctx, bookingID, prev, newStatus)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("booking is no longer %s: %w", prev, ErrInvalidTransition)
		}

		switch {
		case prev == models.BookingStatusPending && newStatus == models.BookingStatusApproved:
			if err := s.availability.Reserve(ctx, booking.RoomID); err != nil {
				return err
			}
		case prev == models.BookingStatusApproved:
			if err := s.availability.Release(ctx, booking.RoomID); err != nil {
				return err
			}
		}

		return s.notifications.Insert(ctx, notification)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Enqueue(*notification)

	booking.Status = newStatus
	booking.UpdatedAt = time.Now()
	return booking, nil
}

// statusNotification addresses the counter-party of the transition: the
// requester when the owner acted, the owner when the requester cancelled.
func (s *BookingService) statusNotification(booking *models.Booking, room *models.Room, newStatus string, actedByOwner bool) *models.Notification {
	notification := &models.Notification{
		ID:        primitive.NewObjectID(),
		Type:      models.NotificationTypeBookingStatusChanged,
		BookingID: &booking.ID,
		RoomID:    &room.ID,
		CreatedAt: time.Now(),
	}
	if actedByOwner {
		notification.Receiver = booking.UserID
		notification.ReceiverModel = models.ReceiverModelUser
		notification.Message = fmt.Sprintf("Your booking for %s has been %s", room.Name, newStatus)
	} else {
		notification.Receiver = room.OwnerID
		notification.ReceiverModel = models.ReceiverModelOwner
		notification.Message = fmt.Sprintf("The booking for %s has been %s by the requester", room.Name, newStatus)
	}
	return notification
}

// CancelByRoom cancels the user's active booking on the room (the
// "unbook" operation).
func (s *BookingService) CancelByRoom(ctx context.Context, userID, roomID primitive.ObjectID) (*models.Booking, error) {
	booking, err := s.bookings.FindActiveByUserAndRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("no active booking for room %s: %w", roomID.Hex(), ErrNotFound)
	}
	return s.UpdateStatus(ctx, booking.ID, models.BookingStatusCancelled,
		models.Identity{ID: userID, UserType: models.UserTypeUser})
}

// RecordPayment records the payment outcome on a booking and notifies the
// requester. Settlement itself happens elsewhere; only the status field is
// kept here.
func (s *BookingService) RecordPayment(ctx context.Context, bookingID primitive.ObjectID, paymentStatus string, actor models.Identity) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID.Hex(), ErrNotFound)
	}

	room, err := s.rooms.FindByID(ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", booking.RoomID.Hex(), ErrNotFound)
	}
	if actor.UserType != models.UserTypeOwner || actor.ID != room.OwnerID {
		return nil, fmt.Errorf("only the room owner may record payment: %w", ErrForbidden)
	}

	notification := &models.Notification{
		ID:            primitive.NewObjectID(),
		Receiver:      booking.UserID,
		ReceiverModel: models.ReceiverModelUser,
		Message:       fmt.Sprintf("Payment for your booking of %s is %s", room.Name, paymentStatus),
		Type:          models.NotificationTypePayment,
		BookingID:     &booking.ID,
		RoomID:        &room.ID,
		CreatedAt:     time.Now(),
	}

	err = s.tx.Atomically(ctx, func(ctx context.Context) error {
		ok, err := s.bookings.UpdatePaymentStatus(ctx, bookingID, paymentStatus)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("booking %s: %w", bookingID.Hex(), ErrNotFound)
		}
		return s.notifications.Insert(ctx, notification)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Enqueue(*notification)

	booking.PaymentStatus = paymentStatus
	booking.UpdatedAt = time.Now()
	return booking, nil
}

// ListForUser returns every booking the user has made, newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	return s.bookings.FindByUser(ctx, userID)
}

// ListApprovedRooms returns the rooms the user currently holds approved
// bookings for. Used by the listing subsystem to decorate room views.
func (s *BookingService) ListApprovedRooms(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	bookings, err := s.bookings.FindApprovedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	rooms := make([]models.Room, 0, len(bookings))
	for _, booking := range bookings {
		room, err := s.rooms.FindByID(ctx, booking.RoomID)
		if err != nil {
			return nil, err
		}
		if room != nil {
			rooms = append(rooms, *room)
		}
	}
	return rooms, nil
}

// HasApprovedBooking reports whether the user holds an approved booking on
// the room.
func (s *BookingService) HasApprovedBooking(ctx context.Context, userID, roomID primitive.ObjectID) (bool, error) {
	booking, err := s.bookings.FindActiveByUserAndRoom(ctx, userID, roomID)
	if err != nil {
		return false, err
	}
	return booking != nil && booking.Status == models.BookingStatusApproved, nil
}
