package sysreset

import (
	"context"
	"sync"
	"time"
)

// Workflow is one session's reset state machine. All transitions are local
// state changes except the collaborator calls in LoadPreview and Execute;
// the mutex is released around those so a stuck network call never wedges
// status reads, and the in-flight flag blocks re-entrant triggers instead.
type Workflow struct {
	collab Collaborator

	mu       sync.Mutex
	phase    Phase
	preview  Preview
	total    int64
	code     string
	inFlight bool
	message  string
	report   *Report
}

// NewWorkflow returns a workflow in the idle phase.
func NewWorkflow(collab Collaborator) *Workflow {
	return &Workflow{collab: collab, phase: PhaseIdle}
}

// Status is a point-in-time snapshot for display.
type Status struct {
	Phase    Phase
	Preview  *Preview
	Total    int64
	InFlight bool
	Message  string
	Report   *Report
}

// Status returns the current snapshot.
func (w *Workflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := Status{
		Phase:    w.phase,
		Total:    w.total,
		InFlight: w.inFlight,
		Message:  w.message,
		Report:   w.report,
	}
	if w.phase != PhaseIdle && w.phase != PhasePreviewLoading {
		preview := w.preview
		st.Preview = &preview
	}
	return st
}

// LoadPreview fetches the deletion preview. On failure the workflow drops
// back to idle with the server's message; no partial state is retained.
func (w *Workflow) LoadPreview(ctx context.Context) error {
	w.mu.Lock()
	if w.phase != PhaseIdle {
		w.mu.Unlock()
		return ErrWrongPhase
	}
	if w.inFlight {
		w.mu.Unlock()
		return ErrInFlight
	}
	w.phase = PhasePreviewLoading
	w.inFlight = true
	w.message = ""
	w.mu.Unlock()

	preview, total, err := w.collab.Preview(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false
	if err != nil {
		w.phase = PhaseIdle
		w.preview = Preview{}
		w.total = 0
		w.message = err.Error()
		return err
	}
	w.phase = PhasePreviewReady
	w.preview = preview
	w.total = total
	return nil
}

// Proceed moves from the displayed preview to phrase entry. No network
// call is involved.
func (w *Workflow) Proceed() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhasePreviewReady {
		return ErrWrongPhase
	}
	w.phase = PhaseConfirmPhrase
	w.message = ""
	return nil
}

// SubmitPhrase checks the typed phrase against the fixed literal. Only an
// exact, case-sensitive match advances; anything else stays put with a
// mismatch notice.
func (w *Workflow) SubmitPhrase(phrase string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseConfirmPhrase {
		return ErrWrongPhase
	}
	if phrase != ConfirmationPhrase {
		w.message = "Frasa konfirmasi tidak cocok"
		return ErrPhraseMismatch
	}
	w.code = ConfirmationCode
	w.phase = PhaseConfirmCode
	w.message = ""
	return nil
}

// Execute runs the irreversible bulk delete. A failure returns to the
// confirm-code phase, not idle, so the user retries without re-previewing;
// the in-flight flag is cleared on both outcomes. There is no automatic
// retry: a partially completed destructive delete must never be retried
// without explicit re-confirmation.
func (w *Workflow) Execute(ctx context.Context, actorID string) (*Report, error) {
	w.mu.Lock()
	if w.phase != PhaseConfirmCode {
		w.mu.Unlock()
		return nil, ErrWrongPhase
	}
	if w.inFlight {
		w.mu.Unlock()
		return nil, ErrInFlight
	}
	code := w.code
	w.phase = PhaseExecuting
	w.inFlight = true
	w.message = ""
	w.mu.Unlock()

	report, err := w.collab.Execute(ctx, code, time.Now().UTC(), actorID)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false
	if err != nil {
		w.phase = PhaseConfirmCode
		w.message = err.Error()
		return nil, err
	}
	w.phase = PhaseCompleted
	w.report = &report
	return &report, nil
}

// Cancel abandons the workflow before execution and clears everything.
// Once executing, the operation cannot be cancelled from the client.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.phase {
	case PhasePreviewReady, PhaseConfirmPhrase, PhaseConfirmCode:
		w.reset()
		return nil
	case PhaseIdle:
		return nil
	default:
		return ErrWrongPhase
	}
}

// Dismiss acknowledges a completed reset and returns to idle.
func (w *Workflow) Dismiss() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseCompleted {
		return ErrWrongPhase
	}
	w.reset()
	return nil
}

func (w *Workflow) reset() {
	w.phase = PhaseIdle
	w.preview = Preview{}
	w.total = 0
	w.code = ""
	w.message = ""
	w.report = nil
}

// Registry keeps one workflow per session. State lives only for the
// session's lifetime; a dropped session abandons its workflow.
type Registry struct {
	collab Collaborator

	mu    sync.Mutex
	flows map[string]*Workflow
}

// NewRegistry constructs a Registry backed by the given collaborator.
func NewRegistry(collab Collaborator) *Registry {
	return &Registry{collab: collab, flows: make(map[string]*Workflow)}
}

// For returns the session's workflow, creating it on first use.
func (r *Registry) For(sessionID string) *Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()
	if flow, ok := r.flows[sessionID]; ok {
		return flow
	}
	flow := NewWorkflow(r.collab)
	r.flows[sessionID] = flow
	return flow
}

// Drop discards the session's workflow.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flows, sessionID)
}
