package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Backuper creates an off-site backup and returns its key
type Backuper interface {
	Backup(ctx context.Context) (string, error)
}

// BackupDatabaseJob ships a database snapshot off-site
type BackupDatabaseJob struct {
	backups Backuper
	timeout time.Duration
	log     zerolog.Logger
}

// NewBackupDatabaseJob creates a new BackupDatabaseJob
func NewBackupDatabaseJob(backups Backuper, timeout time.Duration, log zerolog.Logger) *BackupDatabaseJob {
	return &BackupDatabaseJob{
		backups: backups,
		timeout: timeout,
		log:     log.With().Str("job", "backup_database").Logger(),
	}
}

// Name returns the job name
func (j *BackupDatabaseJob) Name() string {
	return "backup_database"
}

// Run executes the backup
func (j *BackupDatabaseJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	key, err := j.backups.Backup(ctx)
	if err != nil {
		return err
	}

	j.log.Info().Str("key", key).Msg("Backup job completed")
	return nil
}
