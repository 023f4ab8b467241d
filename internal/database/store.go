package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/livecharge/livecharge/internal/station"
)

// Store is an opened station repository together with its connection
// lifecycle.
type Store struct {
	Backend    Backend
	Repository station.Repository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks that the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the underlying connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStore connects to the selected backend using its environment
// configuration and returns the raw, undecorated repository.
func OpenStore(ctx context.Context, backend Backend, logger zerolog.Logger) (*Store, error) {
	switch backend {
	case BackendMongo:
		cfg := MongoConfigFromEnv()
		client, err := ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("database", cfg.Database).Msg("mongodb connected")
		return &Store{
			Backend:    backend,
			Repository: station.NewMongoRepository(client.Database(cfg.Database)),
			ping: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			close: client.Disconnect,
		}, nil

	case BackendPostgres:
		cfg := ConfigFromEnv()
		pool, err := Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info().
			Str("host", cfg.Host).
			Int("port", cfg.Port).
			Str("database", cfg.Database).
			Msg("postgres connected")
		return &Store{
			Backend:    backend,
			Repository: station.NewPostgresRepository(pool),
			ping:       pool.Ping,
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case BackendMemory:
		logger.Warn().Msg("using in-memory station store, data is lost on restart")
		return &Store{Backend: backend, Repository: station.NewInMemoryRepository()}, nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", backend)
	}
}
