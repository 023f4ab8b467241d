package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URL            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// MongoConfigFromEnv creates a MongoConfig from environment variables.
func MongoConfigFromEnv() MongoConfig {
	maxPool, _ := strconv.ParseUint(getEnvOrDefault("MONGODB_MAX_POOL_SIZE", "20"), 10, 64)
	timeout, _ := time.ParseDuration(getEnvOrDefault("MONGODB_CONNECT_TIMEOUT", "10s"))

	return MongoConfig{
		URL:            getEnvOrDefault("MONGODB_URL", "mongodb://localhost:27017"),
		Database:       getEnvOrDefault("MONGODB_DATABASE", "livecharge"),
		MaxPoolSize:    maxPool,
		ConnectTimeout: timeout,
	}
}

// ConnectMongo opens a MongoDB client and verifies the primary is reachable.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, nil
}
