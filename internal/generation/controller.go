package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clipforge/internal/domain"
	"clipforge/internal/transport"
)

// Backend is the transport seam the controller drives. Implemented by
// transport.Client.
type Backend interface {
	Submit(ctx context.Context, req transport.Request) (transport.SubmitResult, error)
	OpenProgressStream(ctx context.Context, onEvent func(transport.ProgressEvent), onError func(error)) (io.Closer, error)
	TaskStatus(ctx context.Context, taskID string) (transport.TaskState, error)
	VideoPreview(ctx context.Context) (string, error)
}

// Records is the persistence seam used for resume. Implemented by
// store.Gateway.
type Records interface {
	FindOngoingVideo(ctx context.Context, userID string) (*domain.VideoRecord, error)
	WatchVideo(videoID string, fn func(domain.VideoRecord)) (io.Closer, error)
}

// Config wires a Controller.
type Config struct {
	Backend Backend
	Records Records
	Logger  zerolog.Logger

	// OnChange, when set, is invoked with a snapshot after every state
	// change. It runs on the controller's internal goroutines and must not
	// call back into the controller.
	OnChange func(Snapshot)

	// PollInterval and PollErrorInterval override the queue-task poll
	// cadence. Zero values mean 2s and 5s.
	PollInterval      time.Duration
	PollErrorInterval time.Duration
}

// Controller is the single source of truth for "is a generation running, how
// far along is it, and can we retry". At most one job is in flight per
// controller; starting a new one supersedes the previous job and tears its
// transports down.
type Controller struct {
	backend Backend
	records Records
	log     zerolog.Logger

	onChange    func(Snapshot)
	pollEvery   time.Duration
	pollErrWait time.Duration

	mu             sync.Mutex
	gen            uint64
	job            Job
	retry          RetryState
	req            transport.Request
	hasReq         bool
	artifactURL    string
	previewFetched bool

	stream     io.Closer
	watch      io.Closer
	pollCancel context.CancelFunc
	retryTimer *time.Timer

	// afterFunc is a seam for tests; defaults to time.AfterFunc.
	afterFunc func(d time.Duration, f func()) *time.Timer
	now       func() time.Time
}

func NewController(cfg Config) (*Controller, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("generation: backend is required")
	}
	pollEvery := cfg.PollInterval
	if pollEvery <= 0 {
		pollEvery = 2 * time.Second
	}
	pollErrWait := cfg.PollErrorInterval
	if pollErrWait <= 0 {
		pollErrWait = 5 * time.Second
	}
	return &Controller{
		backend:     cfg.Backend,
		records:     cfg.Records,
		log:         cfg.Logger,
		onChange:    cfg.OnChange,
		pollEvery:   pollEvery,
		pollErrWait: pollErrWait,
		job:         Job{Status: StatusIdle},
		retry:       RetryState{MaxAttempts: MaxRetryAttempts},
		afterFunc:   time.AfterFunc,
		now:         time.Now,
	}, nil
}

// Snapshot returns the current exposed state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{Job: c.job, Retry: c.retry, ArtifactURL: c.artifactURL}
}

func (c *Controller) notifyLocked() {
	if c.onChange != nil {
		c.onChange(c.snapshotLocked())
	}
}

// StartGeneration validates and submits a fresh request. An error before the
// backend acknowledges propagates to the caller (and is also recorded in
// state); everything after acknowledgement surfaces only through snapshots.
// A call while another job is in flight supersedes it.
func (c *Controller) StartGeneration(ctx context.Context, req transport.Request) error {
	return c.start(ctx, req, true)
}

func (c *Controller) start(ctx context.Context, req transport.Request, fresh bool) error {
	if err := req.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.teardownLocked()
	c.gen++
	gen := c.gen
	c.req = req
	c.hasReq = true
	if fresh {
		c.retry = RetryState{MaxAttempts: MaxRetryAttempts}
	}
	c.job = Job{Status: StatusQueuing, UpdatedAt: c.now()}
	c.artifactURL = ""
	c.previewFetched = false
	c.notifyLocked()
	c.mu.Unlock()

	res, err := c.backend.Submit(ctx, req)
	if err != nil {
		c.mu.Lock()
		if gen == c.gen {
			c.job.Status = StatusFailed
			c.job.Message = err.Error()
			c.job.UpdatedAt = c.now()
			c.retry.LastError = err.Error()
			c.notifyLocked()
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if gen != c.gen {
		// Superseded while the submission was in flight.
		c.mu.Unlock()
		return nil
	}
	c.job.ID = res.VideoID
	c.job.TaskID = res.TaskID
	if res.TaskID != "" {
		c.job.Status = StatusQueued
	}
	c.job.UpdatedAt = c.now()
	c.notifyLocked()
	c.mu.Unlock()

	c.attachStream(ctx, gen, res.TaskID != "")
	if res.TaskID != "" {
		c.startPoll(ctx, gen, res.TaskID)
	}
	return nil
}

// attachStream opens the SSE subscription. hasFallback marks that another
// progress source exists (queue poll or realtime feed), in which case stream
// failures are logged instead of failing the job.
func (c *Controller) attachStream(ctx context.Context, gen uint64, hasFallback bool) {
	onEvent := func(ev transport.ProgressEvent) {
		c.dispatch(gen, fromStream(ev))
	}
	onError := func(err error) {
		if hasFallback {
			c.log.Warn().Err(err).Msg("progress stream dropped, relying on fallback source")
			return
		}
		c.dispatch(gen, event{src: sourceStream, failed: true, errText: err.Error()})
	}

	stream, err := c.backend.OpenProgressStream(ctx, onEvent, onError)
	if err != nil {
		if hasFallback {
			c.log.Warn().Err(err).Msg("progress stream unavailable, relying on fallback source")
			return
		}
		c.dispatch(gen, event{src: sourceStream, failed: true, errText: err.Error()})
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		_ = stream.Close()
		return
	}
	c.stream = stream
	c.mu.Unlock()
}

func (c *Controller) startPoll(ctx context.Context, gen uint64, taskID string) {
	pollCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		cancel()
		return
	}
	c.pollCancel = cancel
	c.mu.Unlock()
	go c.pollLoop(pollCtx, gen, taskID)
}

// pollLoop is the self-rescheduling task poll: nominal cadence pollEvery,
// backing off to pollErrWait after a failed request. Transient poll errors
// never fail the job; only a terminal task status (or teardown) ends the loop.
func (c *Controller) pollLoop(ctx context.Context, gen uint64, taskID string) {
	timer := time.NewTimer(c.pollEvery)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		st, err := c.backend.TaskStatus(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Debug().Err(err).Str("task_id", taskID).Msg("task poll failed, backing off")
			timer.Reset(c.pollErrWait)
			continue
		}
		c.dispatch(gen, fromTask(st))
		if st.Terminal() {
			return
		}
		timer.Reset(c.pollEvery)
	}
}

// dispatch funnels every progress event through the reducer under the lock.
// Events from a superseded attempt are dropped by the generation check.
func (c *Controller) dispatch(gen uint64, ev event) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	before := c.job
	c.job = reduce(before, ev, c.now())

	reachedTerminal := c.job.Status.Terminal() && !before.Status.Terminal()
	fetchPreview := false
	if reachedTerminal {
		// First terminal report wins; tear the other sources down.
		c.teardownTransportsLocked()
		if c.job.Status == StatusFailed {
			c.retry.LastError = c.job.Message
			c.log.Warn().Str("source", ev.src.String()).Str("error", c.job.Message).Msg("generation failed")
		} else if !c.previewFetched {
			c.previewFetched = true
			fetchPreview = true
		}
	}
	if c.job != before {
		c.notifyLocked()
	}
	c.mu.Unlock()

	if fetchPreview {
		go c.fetchArtifact(gen)
	}
}

func (c *Controller) fetchArtifact(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	url, err := c.backend.VideoPreview(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("artifact preview lookup failed")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.artifactURL = url
	c.notifyLocked()
}

// ResumeIfOngoing is the one-shot reconciliation run at construction time:
// it adopts the owner's persisted in-processing video, subscribes to its
// realtime row feed, and re-attaches to the live stream best-effort. A
// failed stream reattach is not retried; the row feed remains the source of
// truth.
func (c *Controller) ResumeIfOngoing(ctx context.Context, ownerID string) error {
	if c.records == nil {
		return fmt.Errorf("generation: records gateway not configured")
	}
	rec, err := c.records.FindOngoingVideo(ctx, ownerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resume lookup: %w", err)
	}

	c.mu.Lock()
	c.teardownLocked()
	c.gen++
	gen := c.gen
	c.retry = RetryState{MaxAttempts: MaxRetryAttempts}
	c.req = transport.Request{}
	c.hasReq = false
	c.artifactURL = ""
	c.previewFetched = false
	c.job = Job{
		ID:        rec.ID,
		Status:    StatusProcessing,
		Progress:  rec.ProcessingProgress,
		Message:   "resumed ongoing generation",
		UpdatedAt: c.now(),
	}
	c.notifyLocked()
	c.mu.Unlock()

	c.log.Info().Str("video_id", rec.ID).Int("progress", rec.ProcessingProgress).Msg("adopted ongoing generation")

	watch, err := c.records.WatchVideo(rec.ID, func(r domain.VideoRecord) {
		c.dispatch(gen, fromRecord(r))
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("realtime subscription failed")
	} else {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			_ = watch.Close()
		} else {
			c.watch = watch
			c.mu.Unlock()
		}
	}

	c.attachStream(ctx, gen, true)
	return nil
}

// Retry re-submits the last request after the backoff delay. It reports
// domain.ErrRetriesExhausted (and issues no network call) once the attempt
// budget is spent.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if !c.hasReq {
		c.mu.Unlock()
		return fmt.Errorf("generation: no request to retry")
	}
	if !c.retry.CanRetry() {
		c.mu.Unlock()
		return domain.ErrRetriesExhausted
	}
	c.retry.Attempts++
	attempt := c.retry.Attempts
	req := c.req
	delay := RetryDelay(attempt)
	if c.retryTimer != nil {
		c.retryTimer.Stop()
	}
	c.job.Message = fmt.Sprintf("retrying (attempt %d of %d)", attempt, c.retry.MaxAttempts)
	c.job.UpdatedAt = c.now()
	c.notifyLocked()
	c.retryTimer = c.afterFunc(delay, func() {
		if err := c.start(ctx, req, false); err != nil {
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("retry submission failed")
		}
	})
	c.mu.Unlock()

	c.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("retry scheduled")
	return nil
}

// Reset tears down all subscriptions and timers and returns the controller
// to idle, from any state.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.gen++
	c.job = Job{Status: StatusIdle}
	c.retry = RetryState{MaxAttempts: MaxRetryAttempts}
	c.req = transport.Request{}
	c.hasReq = false
	c.artifactURL = ""
	c.previewFetched = false
	c.notifyLocked()
}

func (c *Controller) teardownTransportsLocked() {
	if c.stream != nil {
		_ = c.stream.Close()
		c.stream = nil
	}
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	if c.watch != nil {
		_ = c.watch.Close()
		c.watch = nil
	}
}

func (c *Controller) teardownLocked() {
	c.teardownTransportsLocked()
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}
