package transport

import (
	"fmt"
	"strings"

	"clipforge/internal/domain"
)

// Request is the generation submission payload. It is immutable once
// submitted; retries re-send the same value.
type Request struct {
	Prompt      string `json:"prompt"`
	Voice       string `json:"voice"`
	Duration    int    `json:"duration"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate rejects requests the backend would refuse.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Voice) == "" {
		return fmt.Errorf("%w: voice is required", domain.ErrInvalidRequest)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", domain.ErrInvalidRequest)
	}
	return nil
}

// SubmitResult is the backend's acknowledgement of a submission. VideoID is
// always set on success; TaskID only when the work went through the queue.
type SubmitResult struct {
	VideoID string
	TaskID  string
}

// ProgressEvent is one message from the progress stream.
type ProgressEvent struct {
	Step       string
	Percent    int
	HasPercent bool
	Message    string
	Completed  bool
	ErrorText  string
}

// Task statuses reported by the queue endpoint.
const (
	TaskPending    = "pending"
	TaskProcessing = "processing"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// TaskState is one snapshot of a queued task.
type TaskState struct {
	Status       string
	Progress     int
	HasProgress  bool
	ErrorMessage string
}

// Terminal reports whether the task has finished, successfully or not.
func (t TaskState) Terminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskFailed
}
