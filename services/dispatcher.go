package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/roomfinder/roomfinder_backend/models"
	"github.com/roomfinder/roomfinder_backend/utils"
	"github.com/roomfinder/roomfinder_backend/websocket"
)

// notificationChannel is the Redis pub/sub channel carrying committed
// notifications between processes.
const notificationChannel = "roomfinder:notifications"

// DeliveryTarget is what the dispatcher fans out to; the websocket hub in
// production, a fake in tests.
type DeliveryTarget interface {
	Deliver(key string, event websocket.Event) int
}

// Dispatcher is the delivery fanout: it consumes committed notifications
// from a queue and pushes them to every live channel of the receiver, plus
// FCM and email when configured. Every push is best effort — the durable
// record is already stored, so failures are logged and absorbed, never
// propagated back to the state transition that produced the notification.
type Dispatcher struct {
	target DeliveryTarget
	redis  *redis.Client
	db     *mongo.Client

	queue chan models.Notification
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher. redisClient and db may be nil: without
// Redis delivery goes straight to the local target, without a database the
// FCM and email paths are skipped.
func NewDispatcher(target DeliveryTarget, redisClient *redis.Client, db *mongo.Client) *Dispatcher {
	return &Dispatcher{
		target: target,
		redis:  redisClient,
		db:     db,
		queue:  make(chan models.Notification, 256),
		done:   make(chan struct{}),
	}
}

// Run consumes the queue until Shutdown closes it.
func (d *Dispatcher) Run() {
	for notification := range d.queue {
		d.dispatch(notification)
	}
	close(d.done)
}

// Enqueue hands a committed notification to the fanout worker. It never
// blocks the caller: when the queue is full or the dispatcher is shutting
// down, the realtime push is dropped and the receiver picks the
// notification up from the store instead.
func (d *Dispatcher) Enqueue(notification models.Notification) {
	if d == nil {
		return
	}
	// The lock keeps the send out of Shutdown's close(d.queue); a handler
	// finishing during shutdown must not panic on a closed channel.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		log.Printf("Dispatcher stopped, skipping realtime push for %s", notification.IdentityKey())
		return
	}
	select {
	case d.queue <- notification:
	default:
		log.Printf("Fanout queue full, skipping realtime push for %s", notification.IdentityKey())
	}
}

// Shutdown stops accepting work and waits for queued notifications to be
// dispatched. Safe to call more than once.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) dispatch(notification models.Notification) {
	d.push(notification)

	if d.db == nil {
		return
	}
	if err := utils.SendFCMNotification(d.db, notification); err != nil {
		log.Printf("FCM push for %s failed: %v", notification.IdentityKey(), err)
	}
	if notification.ReceiverModel == models.ReceiverModelOwner &&
		notification.Type == models.NotificationTypeBookingCreated {
		if err := utils.SendNotificationEmail(d.db, notification); err != nil {
			log.Printf("Email copy for %s failed: %v", notification.IdentityKey(), err)
		}
	}
}

// push hands the notification to the websocket layer. With Redis configured
// it goes through pub/sub so every process behind the backbone (this one
// included) delivers to its own hub; otherwise it goes straight to the
// local target.
func (d *Dispatcher) push(notification models.Notification) {
	if d.redis != nil {
		payload, err := json.Marshal(notification)
		if err == nil {
			err = d.redis.Publish(context.Background(), notificationChannel, payload).Err()
		}
		if err == nil {
			return
		}
		log.Printf("Publishing notification %s to Redis failed, delivering locally: %v",
			notification.ID.Hex(), err)
	}

	if d.target != nil {
		d.target.Deliver(notification.IdentityKey(), websocket.Event{
			Type: websocket.EventTypeNotification,
			Data: notification,
		})
	}
}

// SubscribeLoop feeds notifications published on the Redis backbone into
// the local delivery target. It returns when ctx is cancelled or Redis is
// not configured.
func (d *Dispatcher) SubscribeLoop(ctx context.Context) {
	if d.redis == nil || d.target == nil {
		return
	}

	pubsub := d.redis.Subscribe(ctx, notificationChannel)
	defer pubsub.Close()

	for {
		select {
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var notification models.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
				log.Printf("Dropping malformed notification from Redis: %v", err)
				continue
			}
			d.target.Deliver(notification.IdentityKey(), websocket.Event{
				Type: websocket.EventTypeNotification,
				Data: notification,
			})
		case <-ctx.Done():
			return
		}
	}
}
