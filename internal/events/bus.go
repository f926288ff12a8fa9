// Package events provides the in-process change-notification bus. Services emit
// after a successful commit; stream handlers subscribe and push to clients.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Emitter is what services depend on to announce committed changes
type Emitter interface {
	Emit(module string, data EventData)
}

// Handler receives events. It runs on the emitting goroutine and must not block.
type Handler func(*Event)

// Bus handles event emission, logging and fan-out to subscribers
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]Handler
	nextID      int
	log         zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[int]Handler),
		log:         log.With().Str("service", "events").Logger(),
	}
}

// Subscribe registers h for every event and returns a function that removes it
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
		})
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Emit emits an event
func (b *Bus) Emit(module string, data EventData) {
	if data == nil {
		return
	}

	event := &Event{
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Module:    module,
		Data:      data,
	}

	eventJSON, _ := json.Marshal(event)
	b.log.Info().
		Str("event_type", string(event.Type)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers))
	for _, h := range b.subscribers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// EmitError emits an error event
func (b *Bus) EmitError(module string, rfqID string, err error) {
	b.Emit(module, &ErrorEventData{RFQID: rfqID, Message: err.Error()})
}
