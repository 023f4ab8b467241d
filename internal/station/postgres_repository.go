package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Reviews are stored as an embedded JSONB document on the station row.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureIndexes creates the stations table and its spatial index.
func (r *PostgresRepository) EnsureIndexes(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS stations (
			id      TEXT PRIMARY KEY,
			name    TEXT NOT NULL,
			lon     DOUBLE PRECISION NOT NULL CHECK (lon BETWEEN -180 AND 180),
			lat     DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
			status  TEXT NOT NULL DEFAULT 'working'
			        CHECK (status IN ('working', 'busy', 'maintenance')),
			reviews JSONB NOT NULL DEFAULT '[]'::jsonb,
			version BIGINT NOT NULL DEFAULT 0,
			seq     BIGSERIAL
		)`,
		`CREATE INDEX IF NOT EXISTS stations_location_idx ON stations USING gist (point(lon, lat))`,
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure stations schema: %w", err)
		}
	}
	return nil
}

// List retrieves all stations.
func (r *PostgresRepository) List(ctx context.Context) ([]*Station, error) {
	query := `
		SELECT id, name, lon, lat, status, reviews, version
		FROM stations
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := []*Station{}
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stations, nil
}

// Get retrieves a station by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Station, error) {
	query := `
		SELECT id, name, lon, lat, status, reviews, version
		FROM stations
		WHERE id = $1
	`

	st, err := scanStation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return st, nil
}

// Insert stores new stations in a single batch.
func (r *PostgresRepository) Insert(ctx context.Context, stations ...*Station) error {
	query := `
		INSERT INTO stations (id, name, lon, lat, status, reviews, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, st := range stations {
		if st.ID == "" {
			st.ID = uuid.New().String()
		}
		if st.Status == "" {
			st.Status = StatusWorking
		}
		reviews, err := marshalReviews(st.Reviews)
		if err != nil {
			return err
		}
		batch.Queue(query, st.ID, st.Name, st.Location.Lon(), st.Location.Lat(), st.Status, reviews, st.Version)
	}

	return r.pool.SendBatch(ctx, batch).Close()
}

// Update replaces a station when its version matches.
func (r *PostgresRepository) Update(ctx context.Context, st *Station) error {
	query := `
		UPDATE stations SET
			name = $3,
			lon = $4,
			lat = $5,
			status = $6,
			reviews = $7,
			version = version + 1
		WHERE id = $1 AND version = $2
	`

	reviews, err := marshalReviews(st.Reviews)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, query,
		st.ID,
		st.Version,
		st.Name,
		st.Location.Lon(),
		st.Location.Lat(),
		st.Status,
		reviews,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM stations WHERE id = $1)`, st.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrStationNotFound
		}
		return ErrVersionConflict
	}

	st.Version++
	return nil
}

// DeleteAll removes every station.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM stations`)
	return err
}

// scanStation scans a station from a query result.
func scanStation(row pgx.Row) (*Station, error) {
	var (
		st       Station
		lon, lat float64
		reviews  []byte
	)

	if err := row.Scan(&st.ID, &st.Name, &lon, &lat, &st.Status, &reviews, &st.Version); err != nil {
		return nil, err
	}

	st.Location = NewGeoPoint(lon, lat)
	st.Reviews = []Review{}
	if len(reviews) > 0 {
		if err := json.Unmarshal(reviews, &st.Reviews); err != nil {
			return nil, fmt.Errorf("decode reviews of station %s: %w", st.ID, err)
		}
	}
	return &st, nil
}

func marshalReviews(reviews []Review) ([]byte, error) {
	if reviews == nil {
		reviews = []Review{}
	}
	data, err := json.Marshal(reviews)
	if err != nil {
		return nil, fmt.Errorf("encode reviews: %w", err)
	}
	return data, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
