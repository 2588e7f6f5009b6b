package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens a client, verifies it with a ping and returns the named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// Indexer is implemented by stores that own collection indexes.
type Indexer interface {
	CreateIndexes(ctx context.Context) error
}

// EnsureIndexes creates the indexes of every store in order, stopping at the first failure.
func EnsureIndexes(ctx context.Context, stores ...Indexer) error {
	for _, s := range stores {
		if err := s.CreateIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
