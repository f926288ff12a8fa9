package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"whitespace only", "  , ,", nil},
		{"single value", "RFQ_CREATED", []string{"RFQ_CREATED"}},
		{"varied spacing", "RFQ_CREATED,  QUOTE_SUBMITTED ,RFQ_FINALIZED", []string{"RFQ_CREATED", "QUOTE_SUBMITTED", "RFQ_FINALIZED"}},
		{"trailing comma", "VendorA,", []string{"VendorA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSV(tt.input))
		})
	}
}

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	OperationTimer("fast", log, time.Hour)()
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), `"operation":"fast"`)

	buf.Reset()
	done := OperationTimer("slow", log, time.Nanosecond)
	time.Sleep(time.Millisecond)
	done()
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "Slow operation detected")
}
