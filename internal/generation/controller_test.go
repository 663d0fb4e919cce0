package generation

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clipforge/internal/domain"
	"clipforge/internal/transport"
)

type fakeStream struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type taskReply struct {
	state transport.TaskState
	err   error
}

type fakeBackend struct {
	mu sync.Mutex

	submitRes transport.SubmitResult
	submitErr error
	submits   int

	streamErr error
	streams   []*fakeStream
	onEvent   func(transport.ProgressEvent)
	onError   func(error)

	taskReplies []taskReply
	polls       int

	previewURL string
	previewErr error
	previews   int
}

func (b *fakeBackend) Submit(ctx context.Context, req transport.Request) (transport.SubmitResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submits++
	if b.submitErr != nil {
		return transport.SubmitResult{}, b.submitErr
	}
	return b.submitRes, nil
}

func (b *fakeBackend) OpenProgressStream(ctx context.Context, onEvent func(transport.ProgressEvent), onError func(error)) (io.Closer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamErr != nil {
		return nil, b.streamErr
	}
	b.onEvent = onEvent
	b.onError = onError
	s := &fakeStream{}
	b.streams = append(b.streams, s)
	return s, nil
}

func (b *fakeBackend) TaskStatus(ctx context.Context, taskID string) (transport.TaskState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls++
	reply := b.taskReplies[0]
	if len(b.taskReplies) > 1 {
		b.taskReplies = b.taskReplies[1:]
	}
	return reply.state, reply.err
}

func (b *fakeBackend) VideoPreview(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.previews++
	return b.previewURL, b.previewErr
}

func (b *fakeBackend) pollCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.polls
}

func (b *fakeBackend) submitCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submits
}

func (b *fakeBackend) previewCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.previews
}

func (b *fakeBackend) emit(ev transport.ProgressEvent) {
	b.mu.Lock()
	fn := b.onEvent
	b.mu.Unlock()
	fn(ev)
}

type fakeRecords struct {
	mu       sync.Mutex
	rec      *domain.VideoRecord
	findErr  error
	watchErr error
	watch    *fakeStream
	fn       func(domain.VideoRecord)
}

func (r *fakeRecords) FindOngoingVideo(ctx context.Context, userID string) (*domain.VideoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.rec == nil {
		return nil, domain.ErrNotFound
	}
	return r.rec, nil
}

func (r *fakeRecords) WatchVideo(videoID string, fn func(domain.VideoRecord)) (io.Closer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watchErr != nil {
		return nil, r.watchErr
	}
	r.fn = fn
	r.watch = &fakeStream{}
	return r.watch, nil
}

func (r *fakeRecords) push(rec domain.VideoRecord) {
	r.mu.Lock()
	fn := r.fn
	r.mu.Unlock()
	fn(rec)
}

func newTestController(t *testing.T, b *fakeBackend, r Records) *Controller {
	t.Helper()
	c, err := NewController(Config{
		Backend:           b,
		Records:           r,
		Logger:            zerolog.Nop(),
		PollInterval:      2 * time.Millisecond,
		PollErrorInterval: 2 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func validRequest() transport.Request {
	return transport.Request{Prompt: "a day in the life of a barista", Voice: "nova", Duration: 30}
}

func TestStartGenerationStreamLifecycle(t *testing.T) {
	b := &fakeBackend{
		submitRes:  transport.SubmitResult{VideoID: "vid-1"},
		previewURL: "http://backend/static/generated_videos/vid-1.mp4",
	}
	c := newTestController(t, b, nil)

	if err := c.StartGeneration(context.Background(), validRequest()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	snap := c.Snapshot()
	if snap.Job.Status != StatusQueuing || snap.Job.ID != "vid-1" {
		t.Fatalf("after submit: %+v", snap.Job)
	}

	b.emit(transport.ProgressEvent{Step: "script", Percent: 20, HasPercent: true, Message: "writing script"})
	snap = c.Snapshot()
	if snap.Job.Status != StatusProcessing || snap.Job.Progress != 20 || snap.Job.Step != "script" {
		t.Fatalf("after first event: %+v", snap.Job)
	}

	b.emit(transport.ProgressEvent{Percent: 100, HasPercent: true, Completed: true})
	snap = c.Snapshot()
	if snap.Job.Status != StatusCompleted || snap.Job.Progress != 100 {
		t.Fatalf("after completion: %+v", snap.Job)
	}
	if !b.streams[0].isClosed() {
		t.Fatal("stream not closed after terminal event")
	}

	waitFor(t, "artifact url", func() bool { return c.Snapshot().ArtifactURL != "" })
	if got := c.Snapshot().ArtifactURL; got != b.previewURL {
		t.Fatalf("artifact url = %q", got)
	}
	if b.previewCount() != 1 {
		t.Fatalf("preview fetched %d times, want 1", b.previewCount())
	}
}

func TestSupersededJobDropsStaleEvents(t *testing.T) {
	b := &fakeBackend{submitRes: transport.SubmitResult{VideoID: "vid-1"}}
	c := newTestController(t, b, nil)

	if err := c.StartGeneration(context.Background(), validRequest()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	staleEvent := b.onEvent

	b.mu.Lock()
	b.submitRes = transport.SubmitResult{VideoID: "vid-2"}
	b.mu.Unlock()
	if err := c.StartGeneration(context.Background(), validRequest()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !b.streams[0].isClosed() {
		t.Fatal("superseded stream not closed")
	}

	staleEvent(transport.ProgressEvent{Percent: 100, HasPercent: true, Completed: true})
	snap := c.Snapshot()
	if snap.Job.ID != "vid-2" || snap.Job.Status.Terminal() {
		t.Fatalf("stale event mutated current job: %+v", snap.Job)
	}
	if b.previewCount() != 0 {
		t.Fatalf("stale completion fetched a preview")
	}
}

func TestQueueTaskPollingDrivesJob(t *testing.T) {
	b := &fakeBackend{
		submitRes: transport.SubmitResult{VideoID: "vid-1", TaskID: "task-1"},
		streamErr: errors.New("stream refused"),
		taskReplies: []taskReply{
			{state: transport.TaskState{Status: transport.TaskProcessing, Progress: 40, HasProgress: true}},
			{state: transport.TaskState{Status: transport.TaskCompleted, Progress: 100, HasProgress: true}},
		},
		previewURL: "http://backend/static/generated_videos/vid-1.mp4",
	}
	c := newTestController(t, b, nil)

	if err := c.StartGeneration(context.Background(), validRequest()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	if got := c.Snapshot().Job.Status; got != StatusQueued {
		t.Fatalf("status after queued submit = %s", got)
	}

	waitFor(t, "completion via poll", func() bool {
		return c.Snapshot().Job.Status == StatusCompleted
	})
	if got := c.Snapshot().Job.Progress; got != 100 {
		t.Fatalf("progress = %d", got)
	}

	polls := b.pollCount()
	time.Sleep(20 * time.Millisecond)
	if b.pollCount() != polls {
		t.Fatalf("poll loop kept running after terminal status")
	}
	waitFor(t, "artifact url", func() bool { return c.Snapshot().ArtifactURL != "" })
}

func TestPollErrorsAreTransient(t *testing.T) {
	b := &fakeBackend{
		submitRes: transport.SubmitResult{VideoID: "vid-1", TaskID: "task-1"},
		streamErr: errors.New("stream refused"),
		taskReplies: []taskReply{
			{err: errors.New("gateway timeout")},
			{state: transport.TaskState{Status: transport.TaskProcessing, Progress: 50, HasProgress: true}},
		},
	}
	c := newTestController(t, b, nil)

	if err := c.StartGeneration(context.Background(), validRequest()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	waitFor(t, "progress past poll error", func() bool {
		return c.Snapshot().Job.Progress == 50
	})
	if got := c.Snapshot().Job.Status; got != StatusProcessing {
		t.Fatalf("status = %s, poll error must not fail the job", got)
	}
}

func TestStreamErrorFailsJobWithoutFallback(t *testing.T) {
	b := &fakeBackend{submitRes: transport.SubmitResult{VideoID: "vid-1"}}
	c := newTestController(t, b, nil)

	if err := c.StartGeneration(context.Background(), validRequest()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	b.onError(errors.New("connection reset"))

	snap := c.Snapshot()
	if snap.Job.Status != StatusFailed || snap.Job.Message != "connection reset" {
		t.Fatalf("job = %+v", snap.Job)
	}
	if snap.Retry.LastError != "connection reset" {
		t.Fatalf("retry = %+v", snap.Retry)
	}
}

func TestStreamOpenFailureFallsBackToPolling(t *testing.T) {
	b := &fakeBackend{
		submitRes: transport.SubmitResult{VideoID: "vid-1", TaskID: "task-1"},
		streamErr: errors.New("stream refused"),
		taskReplies: []taskReply{
			{state: transport.TaskState{Status: transport.TaskCompleted, Progress: 100, HasProgress: true}},
		},
	}
	c := newTestController(t, b, nil)

	if err := c.StartGeneration(context.Background(), validRequest()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	waitFor(t, "completion despite stream failure", func() bool {
		return c.Snapshot().Job.Status == StatusCompleted
	})
}

func TestRetryBackoffAndExhaustion(t *testing.T) {
	b := &fakeBackend{submitErr: errors.New("backend down")}
	c := newTestController(t, b, nil)

	var mu sync.Mutex
	var delays []time.Duration
	c.afterFunc = func(d time.Duration, f func()) *time.Timer {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		go f()
		return time.NewTimer(time.Hour)
	}

	if err := c.StartGeneration(context.Background(), validRequest()); err == nil {
		t.Fatal("StartGeneration succeeded against a down backend")
	}
	if got := c.Snapshot().Job.Status; got != StatusFailed {
		t.Fatalf("status = %s", got)
	}

	wantDelays := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i := 0; i < MaxRetryAttempts; i++ {
		if err := c.Retry(context.Background()); err != nil {
			t.Fatalf("Retry %d: %v", i+1, err)
		}
		want := i + 2 // initial submit plus retries so far
		waitFor(t, "retry resubmission", func() bool { return b.submitCount() == want })
		waitFor(t, "retry failure recorded", func() bool {
			return c.Snapshot().Job.Status == StatusFailed
		})
	}
	mu.Lock()
	for i, want := range wantDelays {
		if delays[i] != want {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want)
		}
	}
	mu.Unlock()

	if err := c.Retry(context.Background()); !errors.Is(err, domain.ErrRetriesExhausted) {
		t.Fatalf("Retry after budget spent = %v, want ErrRetriesExhausted", err)
	}
	if b.submitCount() != 1+MaxRetryAttempts {
		t.Fatalf("submits = %d, exhausted retry must not hit the network", b.submitCount())
	}
}

func TestRetrySucceedsAndFreshStartResetsBudget(t *testing.T) {
	b := &fakeBackend{submitErr: errors.New("backend down")}
	c := newTestController(t, b, nil)
	c.afterFunc = func(d time.Duration, f func()) *time.Timer {
		go f()
		return time.NewTimer(time.Hour)
	}

	if err := c.StartGeneration(context.Background(), validRequest()); err == nil {
		t.Fatal("StartGeneration succeeded against a down backend")
	}

	b.mu.Lock()
	b.submitErr = nil
	b.submitRes = transport.SubmitResult{VideoID: "vid-2"}
	b.mu.Unlock()

	if err := c.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	waitFor(t, "retried job running", func() bool {
		s := c.Snapshot()
		return s.Job.ID == "vid-2" && !s.Job.Status.Terminal()
	})
	if got := c.Snapshot().Retry.Attempts; got != 1 {
		t.Fatalf("attempts = %d, retry must not reset the budget", got)
	}

	if err := c.StartGeneration(context.Background(), validRequest()); err != nil {
		t.Fatalf("fresh start: %v", err)
	}
	if got := c.Snapshot().Retry.Attempts; got != 0 {
		t.Fatalf("attempts = %d, fresh start must reset the budget", got)
	}
}

func TestResumeAdoptsOngoingVideo(t *testing.T) {
	b := &fakeBackend{
		streamErr:  errors.New("stream refused"),
		previewURL: "http://backend/static/generated_videos/vid-9.mp4",
	}
	r := &fakeRecords{rec: &domain.VideoRecord{
		ID:                 "vid-9",
		Status:             domain.VideoStatusProcessing,
		ProcessingProgress: 55,
	}}
	c := newTestController(t, b, r)

	if err := c.ResumeIfOngoing(context.Background(), "user-1"); err != nil {
		t.Fatalf("ResumeIfOngoing: %v", err)
	}
	snap := c.Snapshot()
	if snap.Job.ID != "vid-9" || snap.Job.Status != StatusProcessing || snap.Job.Progress != 55 {
		t.Fatalf("adopted job = %+v", snap.Job)
	}

	r.push(domain.VideoRecord{ID: "vid-9", Status: domain.VideoStatusCompleted, ProcessingProgress: 100})
	snap = c.Snapshot()
	if snap.Job.Status != StatusCompleted || snap.Job.Progress != 100 {
		t.Fatalf("job after realtime completion = %+v", snap.Job)
	}
	if !r.watch.isClosed() {
		t.Fatal("realtime subscription not closed after terminal event")
	}
	waitFor(t, "artifact url", func() bool { return c.Snapshot().ArtifactURL != "" })
}

func TestResumeWithNothingOngoingIsANoOp(t *testing.T) {
	b := &fakeBackend{}
	c := newTestController(t, b, &fakeRecords{})

	if err := c.ResumeIfOngoing(context.Background(), "user-1"); err != nil {
		t.Fatalf("ResumeIfOngoing: %v", err)
	}
	if got := c.Snapshot().Job.Status; got != StatusIdle {
		t.Fatalf("status = %s, want idle", got)
	}
}

func TestResumeLookupErrorPropagates(t *testing.T) {
	b := &fakeBackend{}
	r := &fakeRecords{findErr: errors.New("pool exhausted")}
	c := newTestController(t, b, r)

	if err := c.ResumeIfOngoing(context.Background(), "user-1"); err == nil {
		t.Fatal("expected lookup error")
	}
}

func TestResetReturnsToIdleFromAnyState(t *testing.T) {
	b := &fakeBackend{
		submitRes:  transport.SubmitResult{VideoID: "vid-1"},
		previewURL: "http://backend/static/generated_videos/vid-1.mp4",
	}
	c := newTestController(t, b, nil)

	if err := c.StartGeneration(context.Background(), validRequest()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	b.emit(transport.ProgressEvent{Percent: 100, HasPercent: true, Completed: true})
	waitFor(t, "artifact url", func() bool { return c.Snapshot().ArtifactURL != "" })

	c.Reset()
	snap := c.Snapshot()
	if snap.Job.Status != StatusIdle || snap.Job.Progress != 0 || snap.ArtifactURL != "" {
		t.Fatalf("snapshot after reset = %+v", snap)
	}
	if snap.Retry.Attempts != 0 || snap.Retry.LastError != "" {
		t.Fatalf("retry after reset = %+v", snap.Retry)
	}
	if err := c.Retry(context.Background()); err == nil {
		t.Fatal("Retry after reset must fail, no request is retained")
	}
}

func TestStartValidatesRequest(t *testing.T) {
	b := &fakeBackend{}
	c := newTestController(t, b, nil)

	err := c.StartGeneration(context.Background(), transport.Request{Voice: "nova", Duration: 30})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	if b.submitCount() != 0 {
		t.Fatal("invalid request reached the backend")
	}
}

func TestOnChangeObservesLifecycle(t *testing.T) {
	b := &fakeBackend{submitRes: transport.SubmitResult{VideoID: "vid-1"}}
	var mu sync.Mutex
	var statuses []Status
	c, err := NewController(Config{
		Backend: b,
		Logger:  zerolog.Nop(),
		OnChange: func(s Snapshot) {
			mu.Lock()
			statuses = append(statuses, s.Job.Status)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	if err := c.StartGeneration(context.Background(), validRequest()); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	b.emit(transport.ProgressEvent{Step: "script", Percent: 20, HasPercent: true})
	b.emit(transport.ProgressEvent{Completed: true})

	mu.Lock()
	defer mu.Unlock()
	want := []Status{StatusQueuing, StatusQueuing, StatusProcessing, StatusCompleted}
	if len(statuses) < len(want) {
		t.Fatalf("statuses = %v", statuses)
	}
	for i, w := range want {
		if statuses[i] != w {
			t.Fatalf("statuses = %v, want prefix %v", statuses, want)
		}
	}
}
