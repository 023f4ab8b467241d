package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/livecharge/livecharge/internal/station"
)

// SendFunc hands one encoded event to the underlying topic.
type SendFunc func(ctx context.Context, data []byte, attributes map[string]string) error

// PubSubExporter forwards station updates to a Pub/Sub topic for downstream
// consumers. It does not feed other relay instances.
type PubSubExporter struct {
	send   SendFunc
	client *pubsub.Client
	topic  *pubsub.Publisher
	logger zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub exporter.
type PubSubConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// ExportedUpdate is the message body published to the topic.
type ExportedUpdate struct {
	station.Update
	PublishedAt time.Time `json:"publishedAt"`
}

// NewPubSubExporter connects to Pub/Sub and returns an exporter for the topic.
func NewPubSubExporter(ctx context.Context, cfg PubSubConfig) (*PubSubExporter, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	publisher := client.Publisher(cfg.TopicName)
	publisher.PublishSettings.CountThreshold = 50
	publisher.PublishSettings.DelayThreshold = 50 * time.Millisecond

	logger := cfg.Logger.With().Str("topic", cfg.TopicName).Logger()
	e := &PubSubExporter{
		client: client,
		topic:  publisher,
		logger: logger,
	}
	e.send = func(ctx context.Context, data []byte, attributes map[string]string) error {
		result := publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
		go func() {
			getCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := result.Get(getCtx); err != nil {
				logger.Warn().Err(err).Str("station_id", attributes["stationId"]).Msg("station update export failed")
			}
		}()
		return nil
	}
	return e, nil
}

// NewExporter returns an exporter that delivers through send.
func NewExporter(send SendFunc, logger zerolog.Logger) *PubSubExporter {
	return &PubSubExporter{send: send, logger: logger}
}

// Publish encodes the update and hands it to the topic without waiting for
// the server acknowledgement.
func (e *PubSubExporter) Publish(ctx context.Context, update station.Update) error {
	data, err := json.Marshal(ExportedUpdate{Update: update, PublishedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode exported update: %w", err)
	}

	attributes := map[string]string{
		"event":     EventStationUpdated,
		"stationId": update.StationID,
		"status":    string(update.Status),
	}
	if err := e.send(ctx, data, attributes); err != nil {
		return fmt.Errorf("export station update: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the Pub/Sub client.
func (e *PubSubExporter) Close() error {
	if e.topic != nil {
		e.topic.Stop()
	}
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Ensure PubSubExporter implements station.Publisher.
var _ station.Publisher = (*PubSubExporter)(nil)
