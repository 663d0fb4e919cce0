// Package generation owns the video-generation lifecycle: one controller per
// UI session holds the in-flight job, reconciles the stream/poll/realtime
// progress sources through a single reducer, and exposes a snapshot plus the
// four operations the front end calls.
package generation

import "time"

// Status is the lifecycle state of one generation attempt.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusQueuing    Status = "queuing"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the attempt has finished.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is the state of one generation attempt. It lives for a single attempt
// (plus retries) and is superseded wholesale on reset or a new start.
type Job struct {
	ID        string
	TaskID    string
	Status    Status
	Progress  int
	Step      string
	Message   string
	UpdatedAt time.Time
}

// MaxRetryAttempts is the fixed retry budget per request.
const MaxRetryAttempts = 3

// RetryState tracks the retry budget for the current request. It is zeroed
// only on a fresh (non-retry) submission.
type RetryState struct {
	Attempts    int
	MaxAttempts int
	LastError   string
}

// CanRetry reports whether another retry is permitted.
func (r RetryState) CanRetry() bool {
	return r.Attempts < r.MaxAttempts
}

// Snapshot is the read surface exposed to the UI layer.
type Snapshot struct {
	Job         Job
	Retry       RetryState
	ArtifactURL string
}
