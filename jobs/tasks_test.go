package jobs

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewSessionPurgeTask(t *testing.T) {
	task, err := NewSessionPurgeTask(36 * time.Hour)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if task.Type() != TaskSessionPurge {
		t.Fatalf("expected type %q, got %q", TaskSessionPurge, task.Type())
	}
	var payload SessionPurgePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.GraceHours != 36 {
		t.Fatalf("expected 36 grace hours, got %d", payload.GraceHours)
	}
}

func TestNewAuditTrimTask(t *testing.T) {
	task, err := NewAuditTrimTask(365 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if task.Type() != TaskAuditTrim {
		t.Fatalf("expected type %q, got %q", TaskAuditTrim, task.Type())
	}
	var payload AuditTrimPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.RetentionHours != 365*24 {
		t.Fatalf("expected %d retention hours, got %d", 365*24, payload.RetentionHours)
	}
}
