package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomfinder/roomfinder_backend/models"
	"github.com/roomfinder/roomfinder_backend/repositories"
	"github.com/roomfinder/roomfinder_backend/websocket"
)

// In-memory store implementations backing the service tests. They mirror
// the MongoDB repositories' observable behavior: (nil, nil) on missing
// documents, conditional updates reporting whether the guard matched, and
// the partial unique index on active (user, room) pairs.

type memBookingStore struct {
	mu        sync.Mutex
	bookings  map[primitive.ObjectID]models.Booking
	insertErr error
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{bookings: make(map[primitive.ObjectID]models.Booking)}
}

func (m *memBookingStore) Insert(ctx context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if models.IsActiveBookingStatus(booking.Status) {
		for _, b := range m.bookings {
			if b.UserID == booking.UserID && b.RoomID == booking.RoomID && models.IsActiveBookingStatus(b.Status) {
				return repositories.ErrDuplicateKey
			}
		}
	}
	m.bookings[booking.ID] = *booking
	return nil
}

func (m *memBookingStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		found := b
		return &found, nil
	}
	return nil, nil
}

func (m *memBookingStore) FindActiveByUserAndRoom(ctx context.Context, userID, roomID primitive.ObjectID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.UserID == userID && b.RoomID == roomID && models.IsActiveBookingStatus(b.Status) {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memBookingStore) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memBookingStore) FindApprovedByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.UserID == userID && b.Status == models.BookingStatusApproved {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBookingStore) FindApprovedByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.RoomID == roomID && b.Status == models.BookingStatusApproved {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBookingStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	m.bookings[id] = b
	return true, nil
}

func (m *memBookingStore) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, paymentStatus string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return false, nil
	}
	b.PaymentStatus = paymentStatus
	b.UpdatedAt = time.Now()
	m.bookings[id] = b
	return true, nil
}

func (m *memBookingStore) snapshot() map[primitive.ObjectID]models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[primitive.ObjectID]models.Booking, len(m.bookings))
	for k, v := range m.bookings {
		snap[k] = v
	}
	return snap
}

func (m *memBookingStore) restore(snap map[primitive.ObjectID]models.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = snap
}

type memRoomStore struct {
	mu    sync.Mutex
	rooms map[primitive.ObjectID]models.Room
}

func newMemRoomStore() *memRoomStore {
	return &memRoomStore{rooms: make(map[primitive.ObjectID]models.Room)}
}

func (m *memRoomStore) put(room models.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
}

func (m *memRoomStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		found := r
		return &found, nil
	}
	return nil, nil
}

func (m *memRoomStore) Reserve(ctx context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok || r.Status != models.RoomStatusAvailable {
		return false, nil
	}
	r.Status = models.RoomStatusBooked
	m.rooms[id] = r
	return true, nil
}

func (m *memRoomStore) Release(ctx context.Context, id primitive.ObjectID) error {
	return m.SetStatus(ctx, id, models.RoomStatusAvailable)
}

func (m *memRoomStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	m.rooms[id] = r
	return true, nil
}

// SetStatus writes unconditionally; test setup only.
func (m *memRoomStore) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		r.Status = status
		m.rooms[id] = r
	}
	return nil
}

func (m *memRoomStore) AllIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]primitive.ObjectID, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memRoomStore) status(id primitive.ObjectID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[id].Status
}

func (m *memRoomStore) snapshot() map[primitive.ObjectID]models.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[primitive.ObjectID]models.Room, len(m.rooms))
	for k, v := range m.rooms {
		snap[k] = v
	}
	return snap
}

func (m *memRoomStore) restore(snap map[primitive.ObjectID]models.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms = snap
}

type memNotificationStore struct {
	mu            sync.Mutex
	notifications map[primitive.ObjectID]models.Notification
	insertErr     error // every insert fails while set
	failInserts   int   // fail this many inserts, then succeed
}

func newMemNotificationStore() *memNotificationStore {
	return &memNotificationStore{notifications: make(map[primitive.ObjectID]models.Notification)}
}

func (m *memNotificationStore) Insert(ctx context.Context, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInserts > 0 {
		m.failInserts--
		return errors.New("transient insert failure")
	}
	if m.insertErr != nil {
		return m.insertErr
	}
	m.notifications[notification.ID] = *notification
	return nil
}

func (m *memNotificationStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok {
		found := n
		return &found, nil
	}
	return nil, nil
}

func (m *memNotificationStore) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok {
		n.Read = true
		m.notifications[id] = n
	}
	return nil
}

func (m *memNotificationStore) ListByReceiver(ctx context.Context, receiver primitive.ObjectID, receiverModel string, unreadOnly bool) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.notifications {
		if n.Receiver != receiver || n.ReceiverModel != receiverModel {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memNotificationStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notifications, id)
	return nil
}

func (m *memNotificationStore) DeleteAllForReceiver(ctx context.Context, receiver primitive.ObjectID, receiverModel string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, n := range m.notifications {
		if n.Receiver == receiver && n.ReceiverModel == receiverModel {
			delete(m.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memNotificationStore) forReceiver(receiver primitive.ObjectID, receiverModel string) []models.Notification {
	out, _ := m.ListByReceiver(context.Background(), receiver, receiverModel, false)
	return out
}

func (m *memNotificationStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}

func (m *memNotificationStore) snapshot() map[primitive.ObjectID]models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[primitive.ObjectID]models.Notification, len(m.notifications))
	for k, v := range m.notifications {
		snap[k] = v
	}
	return snap
}

func (m *memNotificationStore) restore(snap map[primitive.ObjectID]models.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = snap
}

// memTx serializes transactions and rolls the three stores back together
// when fn fails, matching what a MongoDB session transaction observes.
type memTx struct {
	mu            sync.Mutex
	bookings      *memBookingStore
	rooms         *memRoomStore
	notifications *memNotificationStore
}

func (t *memTx) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bookingSnap := t.bookings.snapshot()
	roomSnap := t.rooms.snapshot()
	notificationSnap := t.notifications.snapshot()

	if err := fn(ctx); err != nil {
		t.bookings.restore(bookingSnap)
		t.rooms.restore(roomSnap)
		t.notifications.restore(notificationSnap)
		return err
	}
	return nil
}

// fakeTarget records everything delivered to it, keyed by identity.
type fakeTarget struct {
	mu     sync.Mutex
	events map[string][]websocket.Event
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{events: make(map[string][]websocket.Event)}
}

func (f *fakeTarget) Deliver(key string, event websocket.Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[key] = append(f.events[key], event)
	return 1
}

func (f *fakeTarget) eventsFor(key string) []websocket.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]websocket.Event(nil), f.events[key]...)
}

// bookingEnv wires a BookingService over the in-memory stores.
type bookingEnv struct {
	bookings      *memBookingStore
	rooms         *memRoomStore
	notifications *memNotificationStore
	availability  *AvailabilityService
	service       *BookingService

	owner models.Identity
	user  models.Identity
	room  models.Room
}

func newBookingEnv() *bookingEnv {
	env := &bookingEnv{
		bookings:      newMemBookingStore(),
		rooms:         newMemRoomStore(),
		notifications: newMemNotificationStore(),
		owner:         models.Identity{ID: primitive.NewObjectID(), UserType: models.UserTypeOwner},
		user:          models.Identity{ID: primitive.NewObjectID(), UserType: models.UserTypeUser},
	}
	env.room = models.Room{
		ID:      primitive.NewObjectID(),
		OwnerID: env.owner.ID,
		Name:    "Sunny Studio",
		Status:  models.RoomStatusAvailable,
	}
	env.rooms.put(env.room)

	tx := &memTx{bookings: env.bookings, rooms: env.rooms, notifications: env.notifications}
	env.availability = NewAvailabilityService(env.rooms, env.bookings)
	env.service = NewBookingService(env.bookings, env.rooms, env.notifications, env.availability, tx, nil)
	return env
}
