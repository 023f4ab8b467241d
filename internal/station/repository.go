package station

import "context"

// Repository defines the interface for station persistence.
type Repository interface {
	// List retrieves all stations.
	List(ctx context.Context) ([]*Station, error)

	// Get retrieves a station by ID.
	// Returns ErrStationNotFound if the station doesn't exist.
	Get(ctx context.Context, id string) (*Station, error)

	// Insert stores new stations, assigning IDs to those without one.
	Insert(ctx context.Context, stations ...*Station) error

	// Update replaces a station if its stored version still equals
	// station.Version, and bumps the version on success.
	// Returns ErrVersionConflict if the version moved and ErrStationNotFound
	// if the station no longer exists.
	Update(ctx context.Context, station *Station) error

	// DeleteAll removes every station. Used by seeding only.
	DeleteAll(ctx context.Context) error

	// EnsureIndexes creates the schema and the spatial index on location.
	EnsureIndexes(ctx context.Context) error
}
