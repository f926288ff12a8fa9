// Package di wires the procurement services together.
//
// Container is the single source of truth for service instances; the server
// builds its handlers from it.
package di

import (
	"github.com/aristath/rfqdesk/internal/database"
	"github.com/aristath/rfqdesk/internal/events"
	"github.com/aristath/rfqdesk/internal/locks"
	"github.com/aristath/rfqdesk/internal/modules/access"
	"github.com/aristath/rfqdesk/internal/modules/allocation"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/reporting"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/aristath/rfqdesk/internal/reliability"
	"github.com/aristath/rfqdesk/internal/scheduler"
	"github.com/aristath/rfqdesk/internal/session"
)

// Container holds all application dependencies
type Container struct {
	// Database
	DB *database.DB // procurement.db - RFQs, quotes, allocation audit trail

	// Shared infrastructure
	EventBus *events.Bus
	RFQLocks *locks.KeyedMutex // serializes mutations per RFQ across every service

	// Repositories
	RFQRepo        *rfq.Repository
	QuoteRepo      *quotes.Repository
	AllocationRepo *allocation.Repository

	// Services
	RFQService       *rfq.Service
	QuoteService     *quotes.Service
	AllocationEngine *allocation.Engine
	AccessService    *access.Service
	ReportingService *reporting.Service
	SessionIssuer    *session.Issuer
	BackupService    *reliability.BackupService // nil when backups are disabled

	// Jobs
	Scheduler *scheduler.Scheduler
}

// Close releases the database. The scheduler must be stopped first.
func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
