package entity

import "time"

// RunStatus mirrors the states the assistant channel reports for a run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusCancelled  RunStatus = "cancelled"
	RunStatusExpired    RunStatus = "expired"
)

// Terminal reports whether a run will make no further progress.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	default:
		return false
	}
}

// Run is one invocation of the remote assistant against a thread.
type Run struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	Status   RunStatus `json:"status"`
}

// AssistantMessage is a message stored on a remote thread.
type AssistantMessage struct {
	ID      string      `json:"id"`
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	RunID   string      `json:"run_id,omitempty"`
}

// OutstandingRun describes a run the assistant channel still reports as
// not finished, together with its age.
type OutstandingRun struct {
	ThreadID  string        `json:"thread_id"`
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Age       time.Duration `json:"-"`
}

// CleanupReport summarizes one stuck-run sweep. Errors holds per-run
// failures; a failing cancellation never aborts the sweep.
type CleanupReport struct {
	Checked   int      `json:"runs_checked"`
	Stuck     int      `json:"stuck_runs_found"`
	Cancelled int      `json:"runs_cancelled"`
	Errors    []string `json:"errors,omitempty"`
}
