package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/banglalekha/go-services/internal/config"
	"github.com/banglalekha/go-services/pkg/logger"
)

const connectAttempts = 5

// Connect dials MongoDB and returns the client plus the configured database
// handle. Container startup races are absorbed here with retry/backoff so
// callers see either a pinged connection or a final error. Caller should
// call client.Disconnect(ctx) when done.
func Connect(ctx context.Context, cfg *config.MongoDBConfig) (*mongo.Client, *mongo.Database, error) {
	var (
		client *mongo.Client
		err    error
	)
	backoff := time.Second
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client, err = dial(ctx, cfg.URI, cfg.Timeout)
		if err == nil {
			return client, client.Database(cfg.Database), nil
		}
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, connectAttempts, err)
		if attempt < connectAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return nil, nil, fmt.Errorf("mongo connect after %d attempts: %w", connectAttempts, err)
}

func dial(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
