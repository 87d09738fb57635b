package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTxRunner runs functions inside a MongoDB multi-document transaction.
// This is the single cross-entity atomicity boundary of the core: the
// booking status flip and the room status flip commit or abort together.
type MongoTxRunner struct {
	client *mongo.Client
}

func NewMongoTxRunner(client *mongo.Client) *MongoTxRunner {
	return &MongoTxRunner{client: client}
}

func (r *MongoTxRunner) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
