package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/solterra-club/backoffice/internal/dashboard"
	"github.com/solterra-club/backoffice/internal/rbac"
	"github.com/solterra-club/backoffice/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSnapshotBackup is the task type for permission snapshot backups.
	TaskTypeSnapshotBackup = "rbac:snapshot_backup"
	// snapshotBackupKey is the store key holding the latest backup.
	snapshotBackupKey = "rbac:snapshot-backup"
)

// NewSnapshotBackupTask constructs the snapshot backup task.
func NewSnapshotBackupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSnapshotBackup, nil)
}

// SnapshotBackupJob dumps the permission table and widget catalog to a backup
// key so a misfired import or reset can be recovered by hand.
type SnapshotBackupJob struct {
	perms   *rbac.Store
	widgets *dashboard.Registry
	kv      shared.Store
	logger  *slog.Logger
}

// NewSnapshotBackupJob constructs a SnapshotBackupJob.
func NewSnapshotBackupJob(perms *rbac.Store, widgets *dashboard.Registry, kv shared.Store, logger *slog.Logger) *SnapshotBackupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotBackupJob{perms: perms, widgets: widgets, kv: kv, logger: logger}
}

// Run writes the current configuration snapshot to the backup key.
func (j *SnapshotBackupJob) Run(ctx context.Context) error {
	snapshot := rbac.Snapshot{
		ExportedAt: time.Now().UTC(),
		ExportedBy: "system",
		Roles:      j.perms.All(),
		Widgets:    j.widgets.All(),
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := j.kv.Set(ctx, snapshotBackupKey, string(data)); err != nil {
		return err
	}
	j.logger.Info("permission snapshot backed up",
		slog.Int("roles", len(snapshot.Roles)),
		slog.Int("widgets", len(snapshot.Widgets)))
	return nil
}

// Handle processes TaskTypeSnapshotBackup tasks.
func (j *SnapshotBackupJob) Handle(ctx context.Context, t *asynq.Task) error {
	return j.Run(ctx)
}
