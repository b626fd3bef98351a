// Package db connects to MongoDB and prepares the collections.
package db

import (
	"context"
	"fmt"
	"time"

	"agrimart/docstore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect dials MongoDB and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the lookup indexes behind the identity-scoped views
// and the catalog sections.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		docstore.Orders: {
			{Keys: bson.D{{Key: "customerEmail", Value: 1}}, Options: options.Index().SetName("customer_email")},
			{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("status")},
		},
		docstore.Bookings: {
			{Keys: bson.D{{Key: "customerEmail", Value: 1}}, Options: options.Index().SetName("customer_email")},
			{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("status")},
			{Keys: bson.D{{Key: "equipmentId", Value: 1}}, Options: options.Index().SetName("equipment")},
		},
		docstore.Products: {
			{Keys: bson.D{{Key: "type", Value: 1}}, Options: options.Index().SetName("type")},
		},
		docstore.Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("email")},
		},
	}
	for coll, idx := range indexes {
		if _, err := database.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}
