package services

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomfinder/roomfinder_backend/models"
	"github.com/roomfinder/roomfinder_backend/websocket"
)

func alertFor(receiver primitive.ObjectID, receiverModel string) models.Notification {
	return models.Notification{
		ID:            primitive.NewObjectID(),
		Receiver:      receiver,
		ReceiverModel: receiverModel,
		Message:       "test",
		Type:          models.NotificationTypeAlert,
		CreatedAt:     time.Now(),
	}
}

func TestDispatcherDeliversToReceiverKey(t *testing.T) {
	target := newFakeTarget()
	dispatcher := NewDispatcher(target, nil, nil)
	go dispatcher.Run()

	owner := primitive.NewObjectID()
	user := primitive.NewObjectID()
	ownerNotification := alertFor(owner, models.ReceiverModelOwner)
	userNotification := alertFor(user, models.ReceiverModelUser)

	dispatcher.Enqueue(ownerNotification)
	dispatcher.Enqueue(userNotification)
	dispatcher.Shutdown()

	ownerEvents := target.eventsFor("Owner-" + owner.Hex())
	if len(ownerEvents) != 1 {
		t.Fatalf("owner key received %d events, want 1", len(ownerEvents))
	}
	if ownerEvents[0].Type != websocket.EventTypeNotification {
		t.Errorf("event type = %q, want %q", ownerEvents[0].Type, websocket.EventTypeNotification)
	}
	delivered, ok := ownerEvents[0].Data.(models.Notification)
	if !ok || delivered.ID != ownerNotification.ID {
		t.Error("event does not carry the notification")
	}

	if got := len(target.eventsFor("User-" + user.Hex())); got != 1 {
		t.Fatalf("user key received %d events, want 1", got)
	}
	// No cross-delivery
	if got := len(target.eventsFor("User-" + owner.Hex())); got != 0 {
		t.Errorf("owner notification leaked to user key, %d events", got)
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	// No Run loop consuming: the queue fills up and further enqueues must
	// drop instead of blocking the state transition that produced them.
	dispatcher := NewDispatcher(newFakeTarget(), nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		receiver := primitive.NewObjectID()
		for i := 0; i < 1000; i++ {
			dispatcher.Enqueue(alertFor(receiver, models.ReceiverModelUser))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var dispatcher *Dispatcher
	dispatcher.Enqueue(alertFor(primitive.NewObjectID(), models.ReceiverModelUser))
}

func TestEnqueueAfterShutdownIsDropped(t *testing.T) {
	target := newFakeTarget()
	dispatcher := NewDispatcher(target, nil, nil)
	go dispatcher.Run()
	dispatcher.Shutdown()

	// A handler finishing after the server drained must not panic on the
	// closed queue.
	receiver := primitive.NewObjectID()
	dispatcher.Enqueue(alertFor(receiver, models.ReceiverModelUser))

	if got := len(target.eventsFor("User-" + receiver.Hex())); got != 0 {
		t.Errorf("delivered %d events after shutdown, want 0", got)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	dispatcher := NewDispatcher(newFakeTarget(), nil, nil)
	go dispatcher.Run()
	dispatcher.Shutdown()
	dispatcher.Shutdown()
}

func TestConcurrentEnqueueAndShutdown(t *testing.T) {
	dispatcher := NewDispatcher(newFakeTarget(), nil, nil)
	go dispatcher.Run()

	done := make(chan struct{})
	go func() {
		defer close(done)
		receiver := primitive.NewObjectID()
		for i := 0; i < 500; i++ {
			dispatcher.Enqueue(alertFor(receiver, models.ReceiverModelUser))
		}
	}()

	dispatcher.Shutdown()
	<-done
}

func TestShutdownDrainsQueue(t *testing.T) {
	target := newFakeTarget()
	dispatcher := NewDispatcher(target, nil, nil)

	receiver := primitive.NewObjectID()
	for i := 0; i < 10; i++ {
		dispatcher.Enqueue(alertFor(receiver, models.ReceiverModelUser))
	}

	go dispatcher.Run()
	dispatcher.Shutdown()

	if got := len(target.eventsFor("User-" + receiver.Hex())); got != 10 {
		t.Fatalf("delivered %d events after shutdown, want 10", got)
	}
}
