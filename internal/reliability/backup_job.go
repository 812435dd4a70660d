package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const backupJobTimeout = 15 * time.Minute

// BackupJob runs the full backup-and-rotate cycle on a schedule.
type BackupJob struct {
	service     *BackupService
	retainCount int
	log         zerolog.Logger
}

// NewBackupJob creates a scheduled backup job.
func NewBackupJob(service *BackupService, retainCount int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:     service,
		retainCount: retainCount,
		log:         log.With().Str("job", "backup").Logger(),
	}
}

// Run creates and uploads a backup, then rotates old archives.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupJobTimeout)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		j.log.Error().Err(err).Msg("Backup failed")
		return err
	}

	if err := j.service.RotateOldBackups(ctx, j.retainCount); err != nil {
		// Rotation failure leaves extra archives behind, not data loss
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *BackupJob) Name() string {
	return "backup"
}
