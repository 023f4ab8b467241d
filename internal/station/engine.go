package station

import (
	"strings"
	"time"

	"github.com/livecharge/livecharge/internal/api/models"
)

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ValidateReviewInput checks the required review fields.
// Text is optional and never validated.
func ValidateReviewInput(in ReviewInput) error {
	var errs []models.FieldError

	if strings.TrimSpace(in.StationID) == "" {
		errs = append(errs, models.FieldError{Field: "stationId", Message: "is required", Code: "REQUIRED"})
	}
	if in.Status == "" {
		errs = append(errs, models.FieldError{Field: "status", Message: "is required", Code: "REQUIRED"})
	} else if !in.Status.Valid() {
		errs = append(errs, models.FieldError{
			Field:   "status",
			Message: "must be one of working, busy, maintenance",
			Code:    "INVALID_ENUM",
		})
	}
	if strings.TrimSpace(in.Username) == "" {
		errs = append(errs, models.FieldError{Field: "username", Message: "is required", Code: "REQUIRED"})
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ValidateVoteInput checks the username and vote type of a vote.
func ValidateVoteInput(in VoteInput) error {
	var errs []models.FieldError

	if strings.TrimSpace(in.Username) == "" {
		errs = append(errs, models.FieldError{Field: "username", Message: "is required", Code: "REQUIRED"})
	}
	if !in.VoteType.Valid() {
		errs = append(errs, models.FieldError{
			Field:   "voteType",
			Message: "must be upvote or downvote",
			Code:    "INVALID_ENUM",
		})
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// AppendReview appends a new review to st and makes its status the station
// status. Earlier reviews are left untouched.
func AppendReview(st *Station, in ReviewInput, id string, now time.Time) (*Review, error) {
	if err := ValidateReviewInput(in); err != nil {
		return nil, err
	}

	st.Reviews = append(st.Reviews, Review{
		ID:        id,
		Username:  in.Username,
		Text:      in.Text,
		Status:    in.Status,
		Timestamp: now,
		Voters:    []Vote{},
	})
	st.Status = in.Status

	return &st.Reviews[len(st.Reviews)-1], nil
}

// ApplyVote records a vote by username on rv and returns the voter's
// resulting state. Repeating the same vote retracts it; voting the other way
// switches the existing vote. Usernames are compared exactly.
func ApplyVote(rv *Review, username string, vt VoteType) UserVote {
	idx := -1
	for i, v := range rv.Voters {
		if v.Username == username {
			idx = i
			break
		}
	}

	switch {
	case idx < 0:
		rv.Voters = append(rv.Voters, Vote{Username: username, VoteType: vt})
		adjust(rv, vt, 1)
		return UserVote(vt)

	case rv.Voters[idx].VoteType == vt:
		rv.Voters = append(rv.Voters[:idx], rv.Voters[idx+1:]...)
		adjust(rv, vt, -1)
		return UserVoteNone

	default:
		prev := rv.Voters[idx].VoteType
		rv.Voters[idx].VoteType = vt
		adjust(rv, vt, 1)
		adjust(rv, prev, -1)
		return UserVote(vt)
	}
}

// VoteOf returns the current vote state of username on rv.
func VoteOf(rv *Review, username string) UserVote {
	for _, v := range rv.Voters {
		if v.Username == username {
			return UserVote(v.VoteType)
		}
	}
	return UserVoteNone
}

// Recount derives the counters of rv from its voter set.
func Recount(rv *Review) {
	rv.Upvotes, rv.Downvotes = 0, 0
	for _, v := range rv.Voters {
		switch v.VoteType {
		case VoteUp:
			rv.Upvotes++
		case VoteDown:
			rv.Downvotes++
		}
	}
}

// adjust moves the counter for vt by delta, never below zero.
func adjust(rv *Review, vt VoteType, delta int) {
	counter := &rv.Upvotes
	if vt == VoteDown {
		counter = &rv.Downvotes
	}
	*counter += delta
	if *counter < 0 {
		*counter = 0
	}
}
