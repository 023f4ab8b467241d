package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/livecharge/livecharge/internal/api/middleware"
	"github.com/livecharge/livecharge/internal/relay"
	"github.com/livecharge/livecharge/internal/station"
)

// Real-time connection defaults.
const (
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 16 << 10
	submitTimeout         = 10 * time.Second
)

// RealtimeConfig holds configuration for the real-time channel.
type RealtimeConfig struct {
	Service *station.Service
	Hub     *relay.Hub
	Logger  zerolog.Logger

	// AllowedOrigins restricts the WebSocket handshake. Empty allows any origin.
	AllowedOrigins []string

	// PongWait is how long a silent connection is kept. Pings are sent at
	// nine tenths of it. Default: 60s
	PongWait time.Duration
}

// RealtimeHandler serves the /ws channel: it turns updateStationStatus
// messages into review submissions and relays hub broadcasts to the socket.
type RealtimeHandler struct {
	service  *station.Service
	hub      *relay.Hub
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	pongWait     time.Duration
	pingInterval time.Duration
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(cfg RealtimeConfig) *RealtimeHandler {
	pongWait := cfg.PongWait
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}

	h := &RealtimeHandler{
		service:      cfg.Service,
		hub:          cfg.Hub,
		logger:       cfg.Logger,
		pongWait:     pongWait,
		pingInterval: pongWait * 9 / 10,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	h.upgrader.CheckOrigin = originChecker(cfg.AllowedOrigins)
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeWS handles GET /ws.
func (h *RealtimeHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := h.hub.Register(uuid.NewString())
	log := h.logger.With().
		Str("client_id", client.ID()).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Logger()
	log.Info().
		Str("remote_addr", r.RemoteAddr).
		Int("clients", h.hub.Count()).
		Msg("client connected")

	go h.writePump(conn, client, log)
	h.readPump(r.Context(), conn, client, log)

	h.hub.Unregister(client)
	log.Info().Int("clients", h.hub.Count()).Msg("client disconnected")
}

// readPump reads client messages until the connection fails or closes.
func (h *RealtimeHandler) readPump(ctx context.Context, conn *websocket.Conn, client *relay.Client, log zerolog.Logger) {
	conn.SetReadLimit(defaultMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		h.dispatch(ctx, client, data, log)
	}
}

// dispatch handles one inbound frame. Replies go to the sender only.
func (h *RealtimeHandler) dispatch(ctx context.Context, client *relay.Client, data []byte, log zerolog.Logger) {
	var msg relay.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(client, relay.EventError, errorPayload{Message: "invalid message"}, log)
		return
	}

	switch msg.Event {
	case relay.EventUpdateStationStatus:
		var in station.ReviewInput
		if len(msg.Data) == 0 || json.Unmarshal(msg.Data, &in) != nil {
			h.reply(client, relay.EventError, errorPayload{Message: "invalid updateStationStatus payload"}, log)
			return
		}

		submitCtx, cancel := context.WithTimeout(ctx, submitTimeout)
		defer cancel()

		if _, err := h.service.SubmitReview(submitCtx, in); err != nil {
			log.Debug().Err(err).Str("station_id", in.StationID).Msg("status update rejected")
			h.reply(client, relay.EventError, errorPayload{Message: realtimeErrorMessage(err)}, log)
			return
		}
		h.reply(client, relay.EventStatusUpdated, statusUpdatedPayload{StationID: in.StationID}, log)

	default:
		h.reply(client, relay.EventError, errorPayload{Message: "unknown event"}, log)
	}
}

type errorPayload struct {
	Message string `json:"message"`
}

type statusUpdatedPayload struct {
	StationID string `json:"stationId"`
}

func (h *RealtimeHandler) reply(client *relay.Client, event string, payload interface{}, log zerolog.Logger) {
	frame, err := relay.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode reply")
		return
	}
	if !h.hub.Send(client, frame) {
		log.Warn().Str("event", event).Msg("reply dropped")
	}
}

// realtimeErrorMessage turns a service error into the message shown to the
// submitter.
func realtimeErrorMessage(err error) string {
	var verr *station.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, station.ErrStationNotFound):
		return "Station not found"
	case errors.Is(err, station.ErrStoreUnavailable):
		return "Station store is temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "Status update timed out"
	default:
		return "Failed to update station status"
	}
}

// writePump drains the client queue onto the socket and keeps the
// connection alive with pings. It owns all writes to conn.
func (h *RealtimeHandler) writePump(conn *websocket.Conn, client *relay.Client, log zerolog.Logger) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame, ok := <-client.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteWait))
			if !ok {
				// Unregistered by the read side.
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
