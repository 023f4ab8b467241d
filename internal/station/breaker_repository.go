package station

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds configuration for the store circuit breaker.
type BreakerConfig struct {
	// Name identifies the circuit breaker for logging.
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state.
	// Default: 1
	MaxRequests uint32

	// Timeout is the period of open state before switching to half-open.
	// Default: 30 seconds
	Timeout time.Duration

	// ConsecutiveFailures trips the breaker.
	// Default: 5
	ConsecutiveFailures uint32

	// OnStateChange is called when the circuit breaker state changes.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// BreakerRepository wraps a Repository with a circuit breaker. Domain
// outcomes such as a missing station or a version conflict do not count as
// failures; an open breaker surfaces as ErrStoreUnavailable.
type BreakerRepository struct {
	next Repository
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerRepository creates a circuit-breaking decorator around next.
func NewBreakerRepository(next Repository, cfg BreakerConfig) *BreakerRepository {
	if cfg.Name == "" {
		cfg.Name = "station-store"
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}

	threshold := cfg.ConsecutiveFailures
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrStationNotFound) ||
				errors.Is(err, ErrVersionConflict) ||
				errors.Is(err, context.Canceled)
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return &BreakerRepository{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

// State returns the current breaker state.
func (r *BreakerRepository) State() gobreaker.State {
	return r.cb.State()
}

// List retrieves all stations.
func (r *BreakerRepository) List(ctx context.Context) ([]*Station, error) {
	res, err := r.execute(func() (any, error) { return r.next.List(ctx) })
	if err != nil {
		return nil, err
	}
	return res.([]*Station), nil
}

// Get retrieves a station by ID.
func (r *BreakerRepository) Get(ctx context.Context, id string) (*Station, error) {
	res, err := r.execute(func() (any, error) { return r.next.Get(ctx, id) })
	if err != nil {
		return nil, err
	}
	return res.(*Station), nil
}

// Insert stores new stations.
func (r *BreakerRepository) Insert(ctx context.Context, stations ...*Station) error {
	_, err := r.execute(func() (any, error) { return nil, r.next.Insert(ctx, stations...) })
	return err
}

// Update replaces a station when its version matches.
func (r *BreakerRepository) Update(ctx context.Context, st *Station) error {
	_, err := r.execute(func() (any, error) { return nil, r.next.Update(ctx, st) })
	return err
}

// DeleteAll removes every station.
func (r *BreakerRepository) DeleteAll(ctx context.Context) error {
	_, err := r.execute(func() (any, error) { return nil, r.next.DeleteAll(ctx) })
	return err
}

// EnsureIndexes creates the schema and indexes.
func (r *BreakerRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.execute(func() (any, error) { return nil, r.next.EnsureIndexes(ctx) })
	return err
}

func (r *BreakerRepository) execute(fn func() (any, error)) (any, error) {
	res, err := r.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrStoreUnavailable
	}
	return res, err
}

// Ensure BreakerRepository implements Repository interface.
var _ Repository = (*BreakerRepository)(nil)
