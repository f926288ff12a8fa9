package testing

import (
	"sync"

	"github.com/aristath/rfqdesk/internal/events"
)

// MockEmitter is a recording implementation of events.Emitter for testing
type MockEmitter struct {
	mu     sync.RWMutex
	events []events.EventData
}

// NewMockEmitter creates a new mock emitter
func NewMockEmitter() *MockEmitter {
	return &MockEmitter{
		events: make([]events.EventData, 0),
	}
}

// Emit records the event data
func (m *MockEmitter) Emit(module string, data events.EventData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, data)
}

// Events returns everything emitted so far
func (m *MockEmitter) Events() []events.EventData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]events.EventData, len(m.events))
	copy(out, m.events)
	return out
}

// Types returns the type of every emitted event, in order
func (m *MockEmitter) Types() []events.EventType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]events.EventType, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType())
	}
	return out
}

// Reset forgets recorded events
func (m *MockEmitter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = m.events[:0]
}
