package db

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"institute-reviews/config"
	"institute-reviews/models"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
	initErr    error
)

// Init connects the Mongo client once, pings the primary and ensures indexes.
// Later calls return the database from the first call.
func Init(ctx context.Context, cfg config.MongoConfig) (*mongo.Database, error) {
	clientOnce.Do(func() {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		opts := options.Client().ApplyURI(cfg.URI).SetServerSelectionTimeout(timeout)
		cl, err := mongo.Connect(ctx, opts)
		if err != nil {
			initErr = err
			return
		}
		// Ping to verify connection
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			_ = cl.Disconnect(context.Background())
			initErr = err
			return
		}
		d := cl.Database(cfg.Database)

		if err := ensureIndexes(ctx, d); err != nil {
			_ = cl.Disconnect(context.Background())
			initErr = err
			return
		}
		client = cl
		db = d
	})
	return db, initErr
}

func Client() *mongo.Client { return client }

// Pinger adapts a client to the health check.
type Pinger struct{ Client *mongo.Client }

func (p Pinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the client opened by Init.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func indexModels() map[string][]mongo.IndexModel {
	out := map[string][]mongo.IndexModel{
		// one review per author and subject; the upsert relies on it
		"reviews": {
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "subject_type", Value: 1},
					{Key: "subject_id", Value: 1},
				},
				Options: options.Index().SetName("uniq_author_subject").SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "subject_type", Value: 1},
					{Key: "subject_id", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("idx_subject_created_desc"),
			},
		},
		"users": {
			{
				Keys:    bson.D{{Key: "role", Value: 1}, {Key: "phone_number", Value: 1}},
				Options: options.Index().SetName("uniq_role_phone").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "role", Value: 1}, {Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_role_email").SetUnique(true),
			},
		},
	}
	// courses, blogs: seeded by name
	for _, t := range models.SubjectTypes {
		out[t.Collection()] = []mongo.IndexModel{{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("uniq_name").SetUnique(true),
		}}
	}
	return out
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	for collection, idx := range indexModels() {
		if _, err := d.Collection(collection).Indexes().CreateMany(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
