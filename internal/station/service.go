package station

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/livecharge/livecharge/internal/station"

// Update is the station state fanned out to connected clients after every
// committed change.
type Update struct {
	StationID string   `json:"stationId"`
	Status    Status   `json:"status"`
	Reviews   []Review `json:"reviews"`
}

// NewUpdate builds the broadcast payload for st.
func NewUpdate(st *Station) Update {
	reviews := st.Reviews
	if reviews == nil {
		reviews = []Review{}
	}
	return Update{StationID: st.ID, Status: st.Status, Reviews: reviews}
}

// Publisher delivers station updates to subscribers. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, update Update) error
}

// Recorder receives domain events for metrics.
type Recorder interface {
	ReviewSubmitted(status Status)
	VoteApplied(result UserVote)
	OperationFailed(operation string, err error)
	ConflictRetried(operation string)
}

type noopRecorder struct{}

func (noopRecorder) ReviewSubmitted(Status) {}
func (noopRecorder) VoteApplied(UserVote) {}
func (noopRecorder) OperationFailed(string, error) {}
func (noopRecorder) ConflictRetried(string) {}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Update) error { return nil }

// ServiceConfig holds configuration for the station service.
type ServiceConfig struct {
	Repository Repository
	Publisher  Publisher
	Recorder   Recorder
	Logger     zerolog.Logger

	// Now returns the current time. Default: time.Now
	Now func() time.Time

	// NewID returns a fresh review ID. Default: random UUID
	NewID func() string

	// MaxConflictRetries bounds how often a load-mutate-store cycle is re-run
	// after a concurrent write. Default: 5
	MaxConflictRetries uint64

	// ConflictBackoff is the initial wait before re-running a conflicted cycle.
	// Default: 10ms
	ConflictBackoff time.Duration
}

// Service provides station queries and the review and vote operations.
type Service struct {
	repo       Repository
	publisher  Publisher
	recorder   Recorder
	logger     zerolog.Logger
	now        func() time.Time
	newID      func() string
	maxRetries uint64
	initialBO  time.Duration
	locks      *keyedMutex
	tracer     trace.Tracer
}

// NewService creates a new station service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:       cfg.Repository,
		publisher:  cfg.Publisher,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		now:        cfg.Now,
		newID:      cfg.NewID,
		maxRetries: cfg.MaxConflictRetries,
		initialBO:  cfg.ConflictBackoff,
		locks:      newKeyedMutex(),
		tracer:     otel.Tracer(tracerName),
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.recorder == nil {
		s.recorder = noopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	if s.maxRetries == 0 {
		s.maxRetries = 5
	}
	if s.initialBO == 0 {
		s.initialBO = 10 * time.Millisecond
	}
	return s
}

// List retrieves all stations.
func (s *Service) List(ctx context.Context) ([]*Station, error) {
	ctx, span := s.tracer.Start(ctx, "station.List")
	defer span.End()

	stations, err := s.repo.List(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return stations, nil
}

// Get retrieves a station by ID.
func (s *Service) Get(ctx context.Context, id string) (*Station, error) {
	ctx, span := s.tracer.Start(ctx, "station.Get",
		trace.WithAttributes(attribute.String("station.id", id)))
	defer span.End()

	st, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrStationNotFound) {
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}
	return st, nil
}

// SubmitReview appends a review to a station, sets the station status to the
// reviewed status and broadcasts the new station state.
func (s *Service) SubmitReview(ctx context.Context, in ReviewInput) (*Station, error) {
	ctx, span := s.tracer.Start(ctx, "station.SubmitReview",
		trace.WithAttributes(
			attribute.String("station.id", in.StationID),
			attribute.String("review.status", string(in.Status)),
		))
	defer span.End()

	if err := ValidateReviewInput(in); err != nil {
		s.fail(span, "submit_review", err)
		return nil, err
	}

	st, err := s.mutate(ctx, "submit_review", in.StationID, func(st *Station) error {
		_, err := AppendReview(st, in, s.newID(), s.now().UTC())
		return err
	})
	if err != nil {
		s.fail(span, "submit_review", err)
		return nil, err
	}

	s.recorder.ReviewSubmitted(in.Status)
	s.logger.Info().
		Str("station_id", st.ID).
		Str("status", string(st.Status)).
		Str("username", in.Username).
		Int("reviews", len(st.Reviews)).
		Msg("review submitted")

	return st, nil
}

// Vote applies a vote on a review and broadcasts the new station state.
// Repeating an identical vote retracts it.
func (s *Service) Vote(ctx context.Context, in VoteInput) (*VoteResult, error) {
	ctx, span := s.tracer.Start(ctx, "station.Vote",
		trace.WithAttributes(
			attribute.String("station.id", in.StationID),
			attribute.String("review.id", in.ReviewID),
			attribute.String("vote.type", string(in.VoteType)),
		))
	defer span.End()

	if err := ValidateVoteInput(in); err != nil {
		s.fail(span, "vote", err)
		return nil, err
	}

	var result VoteResult
	st, err := s.mutate(ctx, "vote", in.StationID, func(st *Station) error {
		rv, err := st.FindReview(in.ReviewID)
		if err != nil {
			return err
		}
		userVote := ApplyVote(rv, in.Username, in.VoteType)
		result = VoteResult{
			Success:   true,
			Upvotes:   rv.Upvotes,
			Downvotes: rv.Downvotes,
			UserVote:  userVote,
		}
		return nil
	})
	if err != nil {
		s.fail(span, "vote", err)
		return nil, err
	}

	s.recorder.VoteApplied(result.UserVote)
	s.logger.Info().
		Str("station_id", st.ID).
		Str("review_id", in.ReviewID).
		Str("username", in.Username).
		Str("user_vote", string(result.UserVote)).
		Int("upvotes", result.Upvotes).
		Int("downvotes", result.Downvotes).
		Msg("vote applied")

	return &result, nil
}

// mutate runs one serialized load-mutate-store cycle for a station. The
// cycle is re-run from a fresh load when the store reports a concurrent
// write; every other error ends it. The committed state is published while
// the station lock is still held, so broadcasts leave in commit order.
func (s *Service) mutate(ctx context.Context, operation, id string, apply func(*Station) error) (*Station, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var out *Station
	op := func() error {
		st, err := s.repo.Get(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := apply(st); err != nil {
			return backoff.Permanent(err)
		}
		if err := s.repo.Update(ctx, st); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				s.recorder.ConflictRetried(operation)
				s.logger.Debug().
					Str("station_id", id).
					Str("operation", operation).
					Msg("concurrent station write, retrying")
				return err
			}
			return backoff.Permanent(err)
		}
		out = st
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.initialBO
	bo.MaxInterval = 20 * s.initialBO
	bo.MaxElapsedTime = 0

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, s.maxRetries), ctx)); err != nil {
		return nil, err
	}
	s.publish(ctx, out)
	return out, nil
}

// publish hands the new state to the relay without waiting on delivery.
// Persistence already succeeded, so failures are only logged.
func (s *Service) publish(ctx context.Context, st *Station) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), NewUpdate(st)); err != nil {
		s.logger.Warn().
			Err(err).
			Str("station_id", st.ID).
			Msg("failed to publish station update")
	}
}

func (s *Service) fail(span trace.Span, operation string, err error) {
	s.recorder.OperationFailed(operation, err)

	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrStationNotFound) || errors.Is(err, ErrReviewNotFound) {
		span.SetAttributes(attribute.String("error.kind", ErrorKind(err)))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error().Err(err).Str("operation", operation).Msg("station operation failed")
}

// ErrorKind classifies an operation error for metrics and logs.
func ErrorKind(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, ErrStationNotFound), errors.Is(err, ErrReviewNotFound):
		return "not_found"
	case errors.Is(err, ErrVersionConflict):
		return "conflict"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "store"
	}
}
