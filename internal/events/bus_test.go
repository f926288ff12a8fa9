package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitFansOutToSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var mu sync.Mutex
	var got []*Event
	record := func(e *Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	}

	unsubA := bus.Subscribe(record)
	unsubB := bus.Subscribe(record)
	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Emit("rfq", &RFQCreatedData{RFQID: "r1", RFQNumber: 7, NumberOfContainers: 10})
	require.Len(t, got, 2)
	assert.Equal(t, RFQCreated, got[0].Type)
	assert.Equal(t, "rfq", got[0].Module)
	assert.False(t, got[0].Timestamp.IsZero())

	unsubA()
	unsubA() // idempotent
	bus.Emit("rfq", &RFQStatusChangedData{RFQID: "r1", From: "initial", To: "evaluation"})
	assert.Len(t, got, 3)

	unsubB()
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestBus_EmitNilIsIgnored(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	called := false
	bus.Subscribe(func(*Event) { called = true })

	bus.Emit("rfq", nil)
	assert.False(t, called)
}

func TestBus_EmitError(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	var got *Event
	bus.Subscribe(func(e *Event) { got = e })

	bus.EmitError("allocation", "r1", errors.New("disk full"))
	require.NotNil(t, got)
	assert.Equal(t, ErrorOccurred, got.Type)
	rfqID, vendor := got.Data.Scope()
	assert.Equal(t, "r1", rfqID)
	assert.Empty(t, vendor)
}

func TestEventData_Scope(t *testing.T) {
	rfqID, vendor := (&QuoteSubmittedData{RFQID: "r1", QuoteID: "q1", Vendor: "Acme"}).Scope()
	assert.Equal(t, "r1", rfqID)
	assert.Equal(t, "Acme", vendor)

	rfqID, vendor = (&RFQFinalizedData{RFQID: "r2"}).Scope()
	assert.Equal(t, "r2", rfqID)
	assert.Empty(t, vendor)
}

func TestEvent_JSONRoundTripKeepsConcreteType(t *testing.T) {
	original := Event{
		Type:   QuoteSubmitted,
		Module: "quotes",
		Data:   &QuoteSubmittedData{RFQID: "r1", QuoteID: "q1", Vendor: "Acme", Resubmission: true},
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "seaFreight")

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))

	data, ok := decoded.Data.(*QuoteSubmittedData)
	require.True(t, ok)
	assert.Equal(t, "Acme", data.Vendor)
	assert.True(t, data.Resubmission)
}
