package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditTrimJob removes audit rows older than the retention window. Reset
// execution records are kept regardless of age: they document destructive
// operations and are exempt from trimming.
type AuditTrimJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditTrimJob constructs the job.
func NewAuditTrimJob(pool *pgxpool.Pool, logger *slog.Logger) *AuditTrimJob {
	return &AuditTrimJob{pool: pool, logger: logger}
}

// Handle processes one trim task.
func (j *AuditTrimJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AuditTrimPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("jobs: audit trim payload: %w", err)
	}
	if payload.RetentionHours <= 0 {
		return fmt.Errorf("jobs: audit trim retention must be positive")
	}
	tag, err := j.pool.Exec(ctx,
		`DELETE FROM audit_logs WHERE occurred_at < NOW() - $1::interval AND action <> 'system.reset'`,
		fmt.Sprintf("%d hours", payload.RetentionHours))
	if err != nil {
		return fmt.Errorf("jobs: audit trim: %w", err)
	}
	if j.logger != nil {
		j.logger.Info("audit trim completed", slog.Int64("deleted", tag.RowsAffected()))
	}
	return nil
}
