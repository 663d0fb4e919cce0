package generation

import (
	"time"

	"clipforge/internal/domain"
	"clipforge/internal/transport"
)

// eventSource tags where a progress event came from. The backend has two
// execution paths (direct streaming and a work queue) and the client cannot
// know in advance which one a submission will use; the realtime row feed is
// the durable fallback after a reload.
type eventSource int

const (
	sourceStream eventSource = iota + 1
	sourcePoll
	sourceRealtime
)

func (s eventSource) String() string {
	switch s {
	case sourceStream:
		return "stream"
	case sourcePoll:
		return "poll"
	case sourceRealtime:
		return "realtime"
	}
	return "unknown"
}

// event is the tagged union all three sources are normalized into before
// hitting the reducer.
type event struct {
	src        eventSource
	step       string
	message    string
	percent    int
	hasPercent bool
	processing bool
	completed  bool
	failed     bool
	errText    string
}

func fromStream(ev transport.ProgressEvent) event {
	return event{
		src:        sourceStream,
		step:       ev.Step,
		message:    ev.Message,
		percent:    ev.Percent,
		hasPercent: ev.HasPercent,
		completed:  ev.Completed,
		failed:     ev.ErrorText != "",
		errText:    ev.ErrorText,
	}
}

func fromTask(st transport.TaskState) event {
	return event{
		src:        sourcePoll,
		percent:    st.Progress,
		hasPercent: st.HasProgress,
		processing: st.Status == transport.TaskProcessing,
		completed:  st.Status == transport.TaskCompleted,
		failed:     st.Status == transport.TaskFailed,
		errText:    st.ErrorMessage,
	}
}

func fromRecord(rec domain.VideoRecord) event {
	return event{
		src:        sourceRealtime,
		percent:    rec.ProcessingProgress,
		hasPercent: true,
		processing: rec.Status == domain.VideoStatusProcessing,
		completed:  rec.Status == domain.VideoStatusCompleted,
		failed:     rec.Status == domain.VideoStatusFailed,
		errText:    rec.ErrorMessage,
	}
}

// reduce applies one event to the job. Pure: last write wins for step and
// message, percent never regresses, terminal states never regress, and
// reaching completed always pins progress at 100.
func reduce(j Job, ev event, now time.Time) Job {
	if j.Status.Terminal() {
		return j
	}

	out := j
	out.UpdatedAt = now
	if ev.step != "" {
		out.Step = ev.step
	}
	if ev.message != "" {
		out.Message = ev.message
	}
	if ev.hasPercent {
		pct := ev.percent
		if pct > 100 {
			pct = 100
		}
		if pct > out.Progress {
			out.Progress = pct
		}
	}

	if ev.failed {
		out.Status = StatusFailed
		if ev.errText != "" {
			out.Message = ev.errText
		}
		return out
	}
	if ev.completed || out.Progress >= 100 {
		out.Status = StatusCompleted
		out.Progress = 100
		return out
	}
	if out.Status == StatusQueuing || out.Status == StatusQueued {
		if ev.processing || out.Progress > 0 {
			out.Status = StatusProcessing
		}
	}
	return out
}
