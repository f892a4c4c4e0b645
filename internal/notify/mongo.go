package notify

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotifier appends events to an outbox collection for downstream consumers
type MongoNotifier struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoNotifier connects to MongoDB and ensures the outbox indexes
func NewMongoNotifier(ctx context.Context, uri, database, collection string) (*MongoNotifier, error) {
	clientOpts := options.Client().ApplyURI(uri).SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_org_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return &MongoNotifier{client: client, collection: coll}, nil
}

func (n *MongoNotifier) Name() string {
	return "mongo"
}

// Notify implements Notifier
func (n *MongoNotifier) Notify(ctx context.Context, event Event) error {
	doc := bson.M{
		"_id":          event.ID.String(),
		"type":         string(event.Type),
		"session_id":   event.SessionID,
		"property_id":  event.PropertyID,
		"owner_org_id": event.OwnerOrgID,
		"entity_id":    event.EntityID,
		"contact": bson.M{
			"name":  event.Contact.Name,
			"email": event.Contact.Email,
			"phone": event.Contact.Phone,
		},
		"qualification_score": event.Score,
		"occurred_at":         event.OccurredAt,
		"delivered":           false,
	}
	if event.ResellerOrgID != "" {
		doc["reseller_org_id"] = event.ResellerOrgID
	}

	if _, err := n.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB
func (n *MongoNotifier) Close() error {
	return n.client.Disconnect(context.Background())
}
