package repository

import (
	"context"
	"time"

	"github.com/example/homelyeats/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// PaymentEvent is an append-only record of everything the payment flow did or
// received: intent creations, webhook deliveries, and anomalies such as
// webhooks referencing unknown orders.
type PaymentEvent struct {
	ID        string    `bson:"_id,omitempty"`
	OrderID   string    `bson:"order_id,omitempty"`
	IntentID  string    `bson:"intent_id,omitempty"`
	Kind      string    `bson:"kind"`
	Detail    bson.M    `bson:"detail,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (m *MongoRepository) RecordPaymentEvent(ctx context.Context, orderID, intentID, kind string, detail map[string]interface{}) error {
	collection := m.database.Collection(m.config.Collection)
	event := PaymentEvent{
		OrderID:   orderID,
		IntentID:  intentID,
		Kind:      kind,
		Detail:    bson.M(detail),
		CreatedAt: time.Now(),
	}
	_, err := collection.InsertOne(ctx, event)
	return err
}

func (m *MongoRepository) ListPaymentEvents(ctx context.Context, orderID string, limit int64) ([]*PaymentEvent, error) {
	collection := m.database.Collection(m.config.Collection)

	filter := bson.M{"order_id": orderID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*PaymentEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}
