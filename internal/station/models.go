// Package station provides the station review board: the data model, the
// review/vote engine and the service that persists and broadcasts changes.
package station

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrStationNotFound  = errors.New("station not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrVersionConflict  = errors.New("station was modified concurrently")
	ErrStoreUnavailable = errors.New("station store unavailable")
)

// Status is the operational state of a charging station.
type Status string

const (
	StatusWorking     Status = "working"
	StatusBusy        Status = "busy"
	StatusMaintenance Status = "maintenance"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWorking, StatusBusy, StatusMaintenance:
		return true
	}
	return false
}

// VoteType is the direction of a vote on a review.
type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// Valid reports whether v is upvote or downvote.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// UserVote is a voter's resulting vote state on a review.
type UserVote string

const (
	UserVoteUp   UserVote = "upvote"
	UserVoteDown UserVote = "downvote"
	UserVoteNone UserVote = "none"
)

// GeoPoint is a GeoJSON point. Coordinates are ordered [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

// NewGeoPoint returns a GeoJSON point for the given position.
func NewGeoPoint(lon, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// Lon returns the longitude.
func (p GeoPoint) Lon() float64 { return p.Coordinates[0] }

// Lat returns the latitude.
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

// Valid reports whether the point lies within WGS84 bounds.
func (p GeoPoint) Valid() bool {
	return p.Lon() >= -180 && p.Lon() <= 180 && p.Lat() >= -90 && p.Lat() <= 90
}

// Vote is one user's vote on a review.
type Vote struct {
	Username string   `json:"username" bson:"username"`
	VoteType VoteType `json:"voteType" bson:"voteType"`
}

// Review is a user-submitted status report embedded in a station.
type Review struct {
	ID        string    `json:"id" bson:"id"`
	Username  string    `json:"username" bson:"username"`
	Text      string    `json:"text" bson:"text"`
	Status    Status    `json:"status" bson:"status"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Upvotes   int       `json:"upvotes" bson:"upvotes"`
	Downvotes int       `json:"downvotes" bson:"downvotes"`
	Voters    []Vote    `json:"voters" bson:"voters"`
}

// Station is a charging location with its review history.
type Station struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
	Status   Status   `json:"status"`
	Reviews  []Review `json:"reviews"`

	// Version is bumped on every successful write and guards conditional updates.
	Version int64 `json:"-"`
}

// FindReview returns the review with the given id.
func (s *Station) FindReview(id string) (*Review, error) {
	for i := range s.Reviews {
		if s.Reviews[i].ID == id {
			return &s.Reviews[i], nil
		}
	}
	return nil, ErrReviewNotFound
}

// Clone returns a deep copy of the station.
func (s *Station) Clone() *Station {
	cpy := *s
	cpy.Reviews = make([]Review, len(s.Reviews))
	for i, rv := range s.Reviews {
		rv.Voters = append(make([]Vote, 0, len(rv.Voters)), rv.Voters...)
		cpy.Reviews[i] = rv
	}
	return &cpy
}

// ReviewInput is the request to append a review to a station.
type ReviewInput struct {
	StationID string `json:"stationId"`
	Status    Status `json:"status"`
	Text      string `json:"text"`
	Username  string `json:"username"`
}

// VoteInput is the request to vote on a review.
type VoteInput struct {
	StationID string   `json:"-"`
	ReviewID  string   `json:"-"`
	Username  string   `json:"username"`
	VoteType  VoteType `json:"voteType"`
}

// VoteResult is returned to the caller after a vote is applied.
type VoteResult struct {
	Success   bool     `json:"success"`
	Upvotes   int      `json:"upvotes"`
	Downvotes int      `json:"downvotes"`
	UserVote  UserVote `json:"userVote"`
}
