// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/store/audit"
	"go.uber.org/zap"
)

// AuditRetentionJob creates a job that deletes audit events older than
// keep. It runs every six hours.
func AuditRetentionJob(events *audit.Store, logger *zap.Logger, keep time.Duration) Job {
	return Job{
		Name:     "audit-retention",
		Interval: 6 * time.Hour,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-keep)
			count, err := events.DeleteBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("deleted old audit events",
					zap.Int64("count", count),
					zap.Time("cutoff", cutoff))
			}
			return nil
		},
	}
}
