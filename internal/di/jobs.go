package di

import (
	"fmt"
	"time"

	"github.com/aristath/rfqdesk/internal/config"
	"github.com/aristath/rfqdesk/internal/scheduler"
	"github.com/rs/zerolog"
)

// backupTimeout bounds one snapshot-and-upload run
const backupTimeout = 30 * time.Minute

// RegisterJobs creates the scheduler and registers the maintenance jobs.
// The scheduler is returned stopped; the caller starts it.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)

	walJob := scheduler.NewCheckWALCheckpointsJob(container.DB, log)
	if err := sched.AddJob(cfg.MaintenanceSchedule, walJob); err != nil {
		return err
	}

	if container.BackupService != nil {
		backupJob := scheduler.NewBackupDatabaseJob(container.BackupService, backupTimeout, log)
		if err := sched.AddJob(cfg.Backup.Schedule, backupJob); err != nil {
			return err
		}
	}

	container.Scheduler = sched
	return nil
}
