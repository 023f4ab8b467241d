package relay_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/livecharge/livecharge/internal/relay"
	"github.com/livecharge/livecharge/internal/station"
)

type publisherFunc func(ctx context.Context, update station.Update) error

func (f publisherFunc) Publish(ctx context.Context, update station.Update) error {
	return f(ctx, update)
}

func TestFanout_PublishesToAllAndJoinsErrors(t *testing.T) {
	errExport := errors.New("export down")
	var calls []string

	fan := relay.Fanout{
		publisherFunc(func(_ context.Context, u station.Update) error {
			calls = append(calls, "first:"+u.StationID)
			return errExport
		}),
		nil,
		publisherFunc(func(_ context.Context, u station.Update) error {
			calls = append(calls, "second:"+u.StationID)
			return nil
		}),
	}

	err := fan.Publish(context.Background(), station.Update{StationID: "st-1"})

	assert.ErrorIs(t, err, errExport)
	assert.Equal(t, []string{"first:st-1", "second:st-1"}, calls)
}

func TestFanout_Empty(t *testing.T) {
	assert.NoError(t, relay.Fanout(nil).Publish(context.Background(), station.Update{}))
}
