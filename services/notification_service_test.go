package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomfinder/roomfinder_backend/models"
)

func newNotificationEnv() (*NotificationService, *memNotificationStore, models.Identity) {
	store := newMemNotificationStore()
	actor := models.Identity{ID: primitive.NewObjectID(), UserType: models.UserTypeUser}
	return NewNotificationService(store, nil), store, actor
}

func notificationFor(actor models.Identity, message string, createdAt time.Time) *models.Notification {
	return &models.Notification{
		ID:            primitive.NewObjectID(),
		Receiver:      actor.ID,
		ReceiverModel: actor.ReceiverModel(),
		Message:       message,
		Type:          models.NotificationTypeAlert,
		CreatedAt:     createdAt,
	}
}

func TestAppend(t *testing.T) {
	t.Run("persists and fans out", func(t *testing.T) {
		store := newMemNotificationStore()
		target := newFakeTarget()
		dispatcher := NewDispatcher(target, nil, nil)
		go dispatcher.Run()

		service := NewNotificationService(store, dispatcher)
		actor := models.Identity{ID: primitive.NewObjectID(), UserType: models.UserTypeOwner}
		notification := notificationFor(actor, "hello", time.Now())

		if err := service.Append(context.Background(), notification); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		dispatcher.Shutdown()

		if store.count() != 1 {
			t.Fatalf("store holds %d notifications, want 1", store.count())
		}
		events := target.eventsFor(notification.IdentityKey())
		if len(events) != 1 {
			t.Fatalf("delivered %d events, want 1", len(events))
		}
	})

	t.Run("retries transient store failures", func(t *testing.T) {
		service, store, actor := newNotificationEnv()
		store.failInserts = 2

		if err := service.Append(context.Background(), notificationFor(actor, "retry me", time.Now())); err != nil {
			t.Fatalf("Append failed despite retries: %v", err)
		}
		if store.count() != 1 {
			t.Fatalf("store holds %d notifications, want 1", store.count())
		}
	})

	t.Run("reports storage unavailable after exhausting retries", func(t *testing.T) {
		service, store, actor := newNotificationEnv()
		store.insertErr = errors.New("primary stepped down")

		err := service.Append(context.Background(), notificationFor(actor, "doomed", time.Now()))
		if !errors.Is(err, ErrStorageUnavailable) {
			t.Fatalf("Append error = %v, want storage unavailable", err)
		}
		if store.count() != 0 {
			t.Fatal("failed append left a record behind")
		}
	})
}

func TestMarkRead(t *testing.T) {
	service, store, actor := newNotificationEnv()
	notification := notificationFor(actor, "read me", time.Now())
	store.Insert(context.Background(), notification)

	updated, err := service.MarkRead(context.Background(), notification.ID, actor)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if !updated.Read {
		t.Error("returned notification not marked read")
	}

	// Marking twice is the same as marking once
	if _, err := service.MarkRead(context.Background(), notification.ID, actor); err != nil {
		t.Fatalf("second MarkRead failed: %v", err)
	}

	stored, _ := store.FindByID(context.Background(), notification.ID)
	if !stored.Read {
		t.Error("stored notification not marked read")
	}
}

func TestNotificationOwnership(t *testing.T) {
	service, store, actor := newNotificationEnv()
	notification := notificationFor(actor, "mine", time.Now())
	store.Insert(context.Background(), notification)

	t.Run("another user is rejected", func(t *testing.T) {
		other := models.Identity{ID: primitive.NewObjectID(), UserType: models.UserTypeUser}
		if _, err := service.Get(context.Background(), notification.ID, other); !errors.Is(err, ErrForbidden) {
			t.Fatalf("Get error = %v, want forbidden", err)
		}
		if err := service.Delete(context.Background(), notification.ID, other); !errors.Is(err, ErrForbidden) {
			t.Fatalf("Delete error = %v, want forbidden", err)
		}
	})

	t.Run("same id on the owner side is a different receiver", func(t *testing.T) {
		// The same ObjectID acting as an owner must not see a user-model
		// notification
		ownerSide := models.Identity{ID: actor.ID, UserType: models.UserTypeOwner}
		if _, err := service.Get(context.Background(), notification.ID, ownerSide); !errors.Is(err, ErrForbidden) {
			t.Fatalf("Get error = %v, want forbidden", err)
		}
	})

	t.Run("unknown notification", func(t *testing.T) {
		if _, err := service.Get(context.Background(), primitive.NewObjectID(), actor); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get error = %v, want not found", err)
		}
	})
}

func TestList(t *testing.T) {
	service, store, actor := newNotificationEnv()

	base := time.Now()
	oldest := notificationFor(actor, "oldest", base.Add(-2*time.Hour))
	middle := notificationFor(actor, "middle", base.Add(-time.Hour))
	newest := notificationFor(actor, "newest", base)
	for _, n := range []*models.Notification{oldest, middle, newest} {
		store.Insert(context.Background(), n)
	}
	store.MarkRead(context.Background(), middle.ID)

	// Someone else's notification must not leak in
	other := models.Identity{ID: primitive.NewObjectID(), UserType: models.UserTypeUser}
	store.Insert(context.Background(), notificationFor(other, "not yours", base))

	all, err := service.List(context.Background(), actor, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List returned %d notifications, want 3", len(all))
	}
	for i, want := range []string{"newest", "middle", "oldest"} {
		if all[i].Message != want {
			t.Errorf("List[%d] = %q, want %q", i, all[i].Message, want)
		}
	}

	unread, err := service.List(context.Background(), actor, true)
	if err != nil {
		t.Fatalf("List unread failed: %v", err)
	}
	if len(unread) != 2 {
		t.Fatalf("List unread returned %d notifications, want 2", len(unread))
	}
	for _, n := range unread {
		if n.Read {
			t.Errorf("unread listing contains read notification %q", n.Message)
		}
	}
}

func TestClearAll(t *testing.T) {
	service, store, actor := newNotificationEnv()
	for i := 0; i < 3; i++ {
		store.Insert(context.Background(), notificationFor(actor, "n", time.Now()))
	}
	other := models.Identity{ID: primitive.NewObjectID(), UserType: models.UserTypeOwner}
	kept := notificationFor(other, "keep", time.Now())
	store.Insert(context.Background(), kept)

	deleted, err := service.ClearAll(context.Background(), actor)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("ClearAll deleted %d, want 3", deleted)
	}
	if store.count() != 1 {
		t.Errorf("store holds %d notifications, want the other receiver's 1", store.count())
	}
}
