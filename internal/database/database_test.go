package database_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecharge/livecharge/internal/database"
	"github.com/livecharge/livecharge/internal/station"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    database.Backend
		wantErr bool
	}{
		{"", database.BackendMongo, false},
		{"mongo", database.BackendMongo, false},
		{" Postgres ", database.BackendPostgres, false},
		{"memory", database.BackendMemory, false},
		{"redis", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := database.ParseBackend(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_ConnectionString(t *testing.T) {
	cfg := database.Config{
		Host:     "db",
		Port:     5433,
		User:     "lc",
		Password: "secret",
		Database: "stations",
		SSLMode:  "require",
	}
	assert.Equal(t, "postgres://lc:secret@db:5433/stations?sslmode=require", cfg.ConnectionString())

	cfg.URL = "postgres://override/db"
	assert.Equal(t, "postgres://override/db", cfg.ConnectionString())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DATABASE_URL", "")

	cfg := database.ConfigFromEnv()
	assert.Equal(t, "pg.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "livecharge", cfg.Database)
}

func TestMongoConfigFromEnv(t *testing.T) {
	t.Setenv("MONGODB_URL", "mongodb://mongo:27017")
	t.Setenv("MONGODB_DATABASE", "")

	cfg := database.MongoConfigFromEnv()
	assert.Equal(t, "mongodb://mongo:27017", cfg.URL)
	assert.Equal(t, "livecharge", cfg.Database)
	assert.Equal(t, uint64(20), cfg.MaxPoolSize)
}

func TestOpenStore_Memory(t *testing.T) {
	ctx := context.Background()
	store, err := database.OpenStore(ctx, database.BackendMemory, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, database.BackendMemory, store.Backend)
	assert.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Repository.Insert(ctx, &station.Station{ID: "st-1"}))

	got, err := store.Repository.Get(ctx, "st-1")
	require.NoError(t, err)
	assert.Equal(t, station.StatusWorking, got.Status)
	assert.NoError(t, store.Close(ctx))
}

func TestOpenStore_Unknown(t *testing.T) {
	_, err := database.OpenStore(context.Background(), database.Backend("redis"), zerolog.Nop())
	assert.Error(t, err)
}
