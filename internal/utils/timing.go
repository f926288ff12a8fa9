package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// OperationTimer returns a func that logs how long the operation took, at warn
// level when it exceeded slow.
//
// Usage:
//
//	defer utils.OperationTimer("finalize", log, time.Second)()
func OperationTimer(operation string, log zerolog.Logger, slow time.Duration) func() {
	start := time.Now()

	return func() {
		duration := time.Since(start)
		if slow > 0 && duration > slow {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
			return
		}
		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")
	}
}
