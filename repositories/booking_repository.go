package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roomfinder/roomfinder_backend/config"
	"github.com/roomfinder/roomfinder_backend/models"
)

// BookingRepository is the MongoDB-backed BookingStore.
type BookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Client) *BookingRepository {
	return &BookingRepository{
		collection: config.GetCollection(db, "bookings"),
	}
}

func (r *BookingRepository) Insert(ctx context.Context, booking *models.Booking) error {
	_, err := r.collection.InsertOne(ctx, booking)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (r *BookingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) FindActiveByUserAndRoom(ctx context.Context, userID, roomID primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{
		"user": userID,
		"room": roomID,
		"status": bson.M{"$in": []string{
			models.BookingStatusPending,
			models.BookingStatusApproved,
		}},
	}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"user": userID})
}

func (r *BookingRepository) FindApprovedByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"user": userID, "status": models.BookingStatusApproved})
}

func (r *BookingRepository) FindApprovedByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"room": roomID, "status": models.BookingStatusApproved})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatus is the compare-and-swap on (id, expected status). Two racing
// transitions from the same prior status cannot both match the filter.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, paymentStatus string) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"paymentStatus": paymentStatus, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
