// Package sysreset implements the staged workflow that gates the
// irreversible "reset all business data" operation. The workflow is a
// strictly sequential state machine: preview, confirmation phrase,
// confirmation code, execute, report. Only super admins reach it at all;
// the HTTP boundary enforces that.
package sysreset

import (
	"context"
	"errors"
	"time"
)

// ConfirmationPhrase must be typed exactly, case sensitive, before the
// final step unlocks.
const ConfirmationPhrase = "HAPUS SEMUA DATA"

// ConfirmationCode is attached to the execute request once the phrase
// matches. It is a workflow-integrity marker, not a secret: the server
// rejects an execute call that skipped the phrase step.
const ConfirmationCode = "OVAPRIMA-RESET-TOTAL"

// Phase enumerates the workflow states.
type Phase int

const (
	// PhaseIdle is the entry state; nothing has been fetched.
	PhaseIdle Phase = iota
	// PhasePreviewLoading marks an in-flight preview fetch.
	PhasePreviewLoading
	// PhasePreviewReady means counts are displayed, awaiting a decision.
	PhasePreviewReady
	// PhaseConfirmPhrase awaits the typed confirmation phrase.
	PhaseConfirmPhrase
	// PhaseConfirmCode awaits the final irreversible-action trigger.
	PhaseConfirmCode
	// PhaseExecuting marks the in-flight bulk delete. Not cancellable.
	PhaseExecuting
	// PhaseCompleted shows the deletion report until dismissed.
	PhaseCompleted
)

var phaseNames = map[Phase]string{
	PhaseIdle:           "idle",
	PhasePreviewLoading: "preview_loading",
	PhasePreviewReady:   "preview_ready",
	PhaseConfirmPhrase:  "confirm_phrase",
	PhaseConfirmCode:    "confirm_code",
	PhaseExecuting:      "executing",
	PhaseCompleted:      "completed",
}

// String returns the wire name of the phase.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// TableCount is one table's row count in the preview.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Preview is the read-only snapshot of what a reset would remove.
type Preview struct {
	Transactional []TableCount `json:"transactional"`
	MasterData    []TableCount `json:"master_data"`
	ResetToZero   []TableCount `json:"reset_to_zero"`
	Preserved     []string     `json:"preserved"`
}

// Report describes a completed reset.
type Report struct {
	TotalDeleted int64     `json:"total_deleted"`
	ResetAt      time.Time `json:"reset_timestamp"`
	DeletionLog  []string  `json:"deletion_log"`
}

// Collaborator is the external bulk-delete dependency. Preview fetches the
// counts; Execute performs the irreversible delete.
type Collaborator interface {
	Preview(ctx context.Context) (Preview, int64, error)
	Execute(ctx context.Context, code string, confirmedAt time.Time, actorID string) (Report, error)
}

// Workflow errors. Phrase mismatch and wrong-phase calls are user input
// problems, not system failures.
var (
	ErrPhraseMismatch = errors.New("sysreset: confirmation phrase mismatch")
	ErrWrongPhase     = errors.New("sysreset: action not allowed in current phase")
	ErrInFlight       = errors.New("sysreset: operation already in flight")
	ErrInvalidCode    = errors.New("kode konfirmasi tidak valid")
)
