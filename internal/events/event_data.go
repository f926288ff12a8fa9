package events

import (
	"encoding/json"
	"time"
)

// EventType represents different event types
type EventType string

const (
	RFQCreated       EventType = "RFQ_CREATED"
	RFQStatusChanged EventType = "RFQ_STATUS_CHANGED"
	QuoteSubmitted   EventType = "QUOTE_SUBMITTED"
	RFQFinalized     EventType = "RFQ_FINALIZED"
	ErrorOccurred    EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type a stream subscriber can filter on
var AllTypes = []EventType{RFQCreated, RFQStatusChanged, QuoteSubmitted, RFQFinalized, ErrorOccurred}

// EventData is the interface that all event data types must implement.
// Scope names the RFQ the event concerns and, for quote events, the vendor whose
// quote it is; stream handlers use it to decide who may receive the event.
type EventData interface {
	EventType() EventType
	Scope() (rfqID string, vendor string)
}

// Event represents a system event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// RFQCreatedData contains data for RFQCreated events
type RFQCreatedData struct {
	RFQID              string `json:"rfq_id"`
	RFQNumber          int64  `json:"rfq_number"`
	NumberOfContainers int    `json:"number_of_containers"`
}

// EventType returns the event type for RFQCreatedData
func (d *RFQCreatedData) EventType() EventType { return RFQCreated }

// Scope returns the RFQ the event concerns
func (d *RFQCreatedData) Scope() (string, string) { return d.RFQID, "" }

// RFQStatusChangedData contains data for RFQStatusChanged events
type RFQStatusChangedData struct {
	RFQID string `json:"rfq_id"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// EventType returns the event type for RFQStatusChangedData
func (d *RFQStatusChangedData) EventType() EventType { return RFQStatusChanged }

// Scope returns the RFQ the event concerns
func (d *RFQStatusChangedData) Scope() (string, string) { return d.RFQID, "" }

// QuoteSubmittedData contains data for QuoteSubmitted events.
// Cost components are never part of the payload.
type QuoteSubmittedData struct {
	RFQID        string `json:"rfq_id"`
	QuoteID      string `json:"quote_id"`
	Vendor       string `json:"vendor"`
	Resubmission bool   `json:"resubmission"`
}

// EventType returns the event type for QuoteSubmittedData
func (d *QuoteSubmittedData) EventType() EventType { return QuoteSubmitted }

// Scope returns the RFQ and the submitting vendor
func (d *QuoteSubmittedData) Scope() (string, string) { return d.RFQID, d.Vendor }

// RFQFinalizedData contains data for RFQFinalized events
type RFQFinalizedData struct {
	RFQID           string `json:"rfq_id"`
	TotalContainers int    `json:"total_containers"`
	AllocationCount int    `json:"allocation_count"`
}

// EventType returns the event type for RFQFinalizedData
func (d *RFQFinalizedData) EventType() EventType { return RFQFinalized }

// Scope returns the RFQ the event concerns
func (d *RFQFinalizedData) Scope() (string, string) { return d.RFQID, "" }

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	RFQID   string `json:"rfq_id,omitempty"`
	Message string `json:"message"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType { return ErrorOccurred }

// Scope returns the RFQ the error relates to, if any
func (d *ErrorEventData) Scope() (string, string) { return d.RFQID, "" }

// UnmarshalJSON decodes Data into the concrete type named by Type
func (e *Event) UnmarshalJSON(data []byte) error {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if len(aux.Data) == 0 {
		return nil
	}

	var eventData EventData
	switch aux.Type {
	case RFQCreated:
		eventData = &RFQCreatedData{}
	case RFQStatusChanged:
		eventData = &RFQStatusChangedData{}
	case QuoteSubmitted:
		eventData = &QuoteSubmittedData{}
	case RFQFinalized:
		eventData = &RFQFinalizedData{}
	default:
		eventData = &ErrorEventData{}
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}
