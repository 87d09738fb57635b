package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roomfinder/roomfinder_backend/config"
	"github.com/roomfinder/roomfinder_backend/models"
)

// NotificationRepository is the MongoDB-backed NotificationStore.
type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Client) *NotificationRepository {
	return &NotificationRepository{
		collection: config.GetCollection(db, "notifications"),
	}
}

func (r *NotificationRepository) Insert(ctx context.Context, notification *models.Notification) error {
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

func (r *NotificationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var notification models.Notification
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notification)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// MarkRead sets the read flag. Marking an already-read notification matches
// the document and writes the same value, so the call is idempotent.
func (r *NotificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

func (r *NotificationRepository) ListByReceiver(ctx context.Context, receiver primitive.ObjectID, receiverModel string, unreadOnly bool) ([]models.Notification, error) {
	filter := bson.M{
		"receiver":      receiver,
		"receiverModel": receiverModel,
	}
	if unreadOnly {
		filter["read"] = false
	}

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *NotificationRepository) DeleteAllForReceiver(ctx context.Context, receiver primitive.ObjectID, receiverModel string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{
		"receiver":      receiver,
		"receiverModel": receiverModel,
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
