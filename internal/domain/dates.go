package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates (readiness, ETD/ETA, validity)
const DateLayout = "2006-01-02"

// ParseDate parses a wire date, reporting failures as a ValidationError on field
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &ValidationError{Field: field, Reason: "is required"}
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: "must be a YYYY-MM-DD date"}
	}
	return t, nil
}
