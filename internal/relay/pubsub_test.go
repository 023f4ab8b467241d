package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecharge/livecharge/internal/relay"
	"github.com/livecharge/livecharge/internal/station"
)

func TestPubSubExporter_Publish(t *testing.T) {
	var gotData []byte
	var gotAttrs map[string]string
	exp := relay.NewExporter(func(_ context.Context, data []byte, attrs map[string]string) error {
		gotData = data
		gotAttrs = attrs
		return nil
	}, zerolog.Nop())

	before := time.Now().UTC().Add(-time.Second)
	update := station.Update{StationID: "st-9", Status: station.StatusMaintenance, Reviews: []station.Review{}}
	require.NoError(t, exp.Publish(context.Background(), update))

	assert.Equal(t, map[string]string{
		"event":     relay.EventStationUpdated,
		"stationId": "st-9",
		"status":    "maintenance",
	}, gotAttrs)

	var body relay.ExportedUpdate
	require.NoError(t, json.Unmarshal(gotData, &body))
	assert.Equal(t, "st-9", body.StationID)
	assert.Equal(t, station.StatusMaintenance, body.Status)
	assert.True(t, body.PublishedAt.After(before))
}

func TestPubSubExporter_SendFailure(t *testing.T) {
	errSend := errors.New("topic not found")
	exp := relay.NewExporter(func(context.Context, []byte, map[string]string) error {
		return errSend
	}, zerolog.Nop())

	err := exp.Publish(context.Background(), station.Update{StationID: "st-1"})
	assert.ErrorIs(t, err, errSend)
	assert.NoError(t, exp.Close())
}
