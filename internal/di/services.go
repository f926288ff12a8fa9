package di

import (
	"context"
	"fmt"

	"github.com/aristath/rfqdesk/internal/config"
	"github.com/aristath/rfqdesk/internal/events"
	"github.com/aristath/rfqdesk/internal/locks"
	"github.com/aristath/rfqdesk/internal/modules/access"
	"github.com/aristath/rfqdesk/internal/modules/allocation"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/reporting"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/aristath/rfqdesk/internal/reliability"
	"github.com/aristath/rfqdesk/internal/session"
	"github.com/rs/zerolog"
)

// InitializeServices creates every service. Repositories must be initialized.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.RFQRepo == nil || container.QuoteRepo == nil || container.AllocationRepo == nil {
		return fmt.Errorf("repositories must be initialized before services")
	}

	container.EventBus = events.NewBus(log)
	container.RFQLocks = locks.NewKeyedMutex()

	container.RFQService = rfq.NewService(container.RFQRepo, container.RFQLocks, container.EventBus, log)
	container.QuoteService = quotes.NewService(
		container.QuoteRepo,
		container.RFQService,
		container.RFQLocks,
		container.EventBus,
		log,
	)
	container.AllocationEngine = allocation.NewEngine(
		container.DB.Conn(),
		container.AllocationRepo,
		container.RFQRepo,
		container.QuoteRepo,
		container.RFQLocks,
		container.EventBus,
		log,
	)
	container.AccessService = access.NewService(
		container.RFQService,
		container.QuoteService,
		container.AllocationEngine,
		log,
	)
	container.ReportingService = reporting.NewService(container.RFQService, container.QuoteService, log)
	container.SessionIssuer = session.NewIssuer(cfg.SessionSecret, cfg.SessionIssuer)

	if cfg.Backup != nil && cfg.Backup.Enabled {
		store, err := reliability.NewS3Store(ctx, cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			container.DB,
			store,
			cfg.DataDir,
			cfg.Backup.Prefix,
			cfg.Backup.Retention,
			log,
		)
	}

	log.Info().Bool("backups", container.BackupService != nil).Msg("Services initialized")
	return nil
}
