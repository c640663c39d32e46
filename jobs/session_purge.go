package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionPurgeJob deletes expired session audit rows. The live session
// state is in Redis with its own TTL; this only sweeps the postgres trail.
type SessionPurgeJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewSessionPurgeJob constructs the job.
func NewSessionPurgeJob(pool *pgxpool.Pool, logger *slog.Logger) *SessionPurgeJob {
	return &SessionPurgeJob{pool: pool, logger: logger}
}

// Handle processes one purge task.
func (j *SessionPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SessionPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("jobs: session purge payload: %w", err)
	}
	grace := time.Duration(payload.GraceHours) * time.Hour
	tag, err := j.pool.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at < NOW() - $1::interval`,
		fmt.Sprintf("%d hours", int(grace.Hours())))
	if err != nil {
		return fmt.Errorf("jobs: session purge: %w", err)
	}
	if j.logger != nil {
		j.logger.Info("session purge completed", slog.Int64("deleted", tag.RowsAffected()))
	}
	return nil
}
