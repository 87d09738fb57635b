package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/roomfinder/roomfinder_backend/config"
	"github.com/roomfinder/roomfinder_backend/models"
)

// RoomRepository is the MongoDB-backed RoomStore.
type RoomRepository struct {
	collection *mongo.Collection
}

func NewRoomRepository(db *mongo.Client) *RoomRepository {
	return &RoomRepository{
		collection: config.GetCollection(db, "rooms"),
	}
}

func (r *RoomRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	var room models.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Reserve flips Available to Booked in one conditional update. A room that
// is already Booked does not match the filter, so a concurrent reservation
// loses cleanly instead of overwriting.
func (r *RoomRepository) Reserve(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RoomStatusAvailable},
		bson.M{"$set": bson.M{"status": models.RoomStatusBooked, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *RoomRepository) Release(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.RoomStatusAvailable, "updatedAt": time.Now()}},
	)
	return err
}

// UpdateStatus is the guarded write the reconciler uses: the filter pins
// the status the caller observed, so a room reserved concurrently no
// longer matches and keeps its Booked flag.
func (r *RoomRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *RoomRepository) AllIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}
