package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aristath/rfqdesk/internal/api"
	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/events"
	"github.com/aristath/rfqdesk/internal/utils"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	streamBuffer      = 100
	heartbeatInterval = 30 * time.Second
	wsWriteTimeout    = 10 * time.Second
)

// EventFilter decides whether an event scoped to (rfqID, vendor) may reach p
type EventFilter interface {
	CanSeeEvent(ctx context.Context, p domain.Principal, rfqID, vendor string) bool
}

// EventsStreamHandler pushes change notifications over SSE and WebSocket.
// Every event is checked against the caller's visibility before it is sent.
type EventsStreamHandler struct {
	eventBus  *events.Bus
	filter    EventFilter
	log       zerolog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// NewEventsStreamHandler creates a new events stream handler
func NewEventsStreamHandler(eventBus *events.Bus, filter EventFilter, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus: eventBus,
		filter:   filter,
		log:      log.With().Str("component", "events_stream").Logger(),
		done:     make(chan struct{}),
	}
}

// Close ends every open stream. http.Server.Shutdown does not cancel active
// requests, so this must run first.
func (h *EventsStreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// streamMessage is the wire shape of one pushed event
type streamMessage struct {
	Type      string           `json:"type"`
	Module    string           `json:"module,omitempty"`
	Timestamp string           `json:"timestamp"`
	Data      events.EventData `json:"data,omitempty"`
}

// parseTypes reads the comma-separated types filter. Empty means every type.
func parseTypes(raw string) (map[events.EventType]bool, error) {
	names := utils.ParseCSV(raw)
	if names == nil {
		return nil, nil
	}
	known := make(map[events.EventType]bool, len(events.AllTypes))
	for _, t := range events.AllTypes {
		known[t] = true
	}

	allowed := make(map[events.EventType]bool)
	for _, name := range names {
		et := events.EventType(name)
		if !known[et] {
			return nil, &domain.ValidationError{Field: "types", Reason: fmt.Sprintf("unknown event type %q", et)}
		}
		allowed[et] = true
	}
	return allowed, nil
}

// subscribe registers a non-blocking bus handler feeding a buffered channel
func (h *EventsStreamHandler) subscribe(allowed map[events.EventType]bool) (<-chan *events.Event, func()) {
	ch := make(chan *events.Event, streamBuffer)
	unsubscribe := h.eventBus.Subscribe(func(event *events.Event) {
		if allowed != nil && !allowed[event.Type] {
			return
		}
		select {
		case ch <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	})
	return ch, unsubscribe
}

// visible applies the per-principal filter. Events without a scope are dropped
// for vendors.
func (h *EventsStreamHandler) visible(ctx context.Context, p domain.Principal, event *events.Event) bool {
	if event.Data == nil {
		return false
	}
	rfqID, vendor := event.Data.Scope()
	return h.filter.CanSeeEvent(ctx, p, rfqID, vendor)
}

func toMessage(event *events.Event) streamMessage {
	return streamMessage{
		Type:      string(event.Type),
		Module:    event.Module,
		Timestamp: event.Timestamp.Format(time.RFC3339),
		Data:      event.Data,
	}
}

func (h *EventsStreamHandler) encode(msg streamMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal event")
		return []byte(`{"type":"error"}`)
	}
	return data
}

// ServeSSE handles GET /api/events/stream
func (h *EventsStreamHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}
	allowed, err := parseTypes(r.URL.Query().Get("types"))
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	eventChan, unsubscribe := h.subscribe(allowed)
	defer unsubscribe()

	h.log.Info().
		Str("principal", p.ID).
		Str("types_filter", r.URL.Query().Get("types")).
		Msg("Client connected to event stream")

	fmt.Fprintf(w, "data: %s\n\n", h.encode(streamMessage{
		Type:      "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}))
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Info().Str("principal", p.ID).Msg("Client disconnected from event stream")
			return

		case <-h.done:
			return

		case event := <-eventChan:
			if !h.visible(ctx, p, event) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", h.encode(toMessage(event)))
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprintf(w, "data: %s\n\n", h.encode(streamMessage{
				Type:      "heartbeat",
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}))
			flusher.Flush()
		}
	}
}

// ServeWS handles GET /api/events/ws. Client messages are ignored.
func (h *EventsStreamHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return
	}
	allowed, err := parseTypes(r.URL.Query().Get("types"))
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}

	// Authentication is the bearer token, not a cookie, so any origin may connect
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket handshake failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	eventChan, unsubscribe := h.subscribe(allowed)
	defer unsubscribe()

	ctx := conn.CloseRead(r.Context())

	h.log.Info().Str("principal", p.ID).Msg("WebSocket client connected")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Str("principal", p.ID).Msg("WebSocket client disconnected")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case <-h.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return

		case event := <-eventChan:
			if !h.visible(ctx, p, event) {
				continue
			}
			if err := h.write(ctx, conn, h.encode(toMessage(event))); err != nil {
				h.log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}

		case <-heartbeat.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("WebSocket ping failed")
				return
			}
		}
	}
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
