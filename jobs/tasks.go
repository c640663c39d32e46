package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPurge removes expired session rows from postgres.
	TaskSessionPurge = "sessions:purge"
	// TaskAuditTrim removes audit rows past the retention window.
	TaskAuditTrim = "audit:trim"
)

// SessionPurgePayload configures a session purge run.
type SessionPurgePayload struct {
	// GraceHours keeps recently expired rows around for support lookups.
	GraceHours int `json:"grace_hours"`
}

// NewSessionPurgeTask constructs an Asynq task for session purging.
func NewSessionPurgeTask(grace time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(SessionPurgePayload{GraceHours: int(grace.Hours())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPurge, data), nil
}

// AuditTrimPayload configures an audit trim run.
type AuditTrimPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAuditTrimTask constructs an Asynq task for audit trimming.
func NewAuditTrimTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditTrimPayload{RetentionHours: int(retention.Hours())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditTrim, data), nil
}
