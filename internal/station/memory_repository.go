package station

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local runs.
type InMemoryRepository struct {
	mu       sync.RWMutex
	stations map[string]*Station
	order    []string
}

// NewInMemoryRepository creates a new in-memory station repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		stations: make(map[string]*Station),
	}
}

// List retrieves all stations in insertion order.
func (r *InMemoryRepository) List(_ context.Context) ([]*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stations := make([]*Station, 0, len(r.order))
	for _, id := range r.order {
		stations = append(stations, r.stations[id].Clone())
	}
	return stations, nil
}

// Get retrieves a station by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}
	return st.Clone(), nil
}

// Insert stores new stations.
func (r *InMemoryRepository) Insert(_ context.Context, stations ...*Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range stations {
		if st.ID == "" {
			st.ID = uuid.New().String()
		}
		if st.Status == "" {
			st.Status = StatusWorking
		}
		if st.Reviews == nil {
			st.Reviews = []Review{}
		}
		if _, exists := r.stations[st.ID]; !exists {
			r.order = append(r.order, st.ID)
		}
		r.stations[st.ID] = st.Clone()
	}
	return nil
}

// Update replaces a station when its version matches.
func (r *InMemoryRepository) Update(_ context.Context, st *Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.stations[st.ID]
	if !ok {
		return ErrStationNotFound
	}
	if current.Version != st.Version {
		return ErrVersionConflict
	}

	st.Version++
	r.stations[st.ID] = st.Clone()
	return nil
}

// DeleteAll removes every station.
func (r *InMemoryRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stations = make(map[string]*Station)
	r.order = nil
	return nil
}

// EnsureIndexes is a no-op for the in-memory store.
func (r *InMemoryRepository) EnsureIndexes(_ context.Context) error {
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
