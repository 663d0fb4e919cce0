package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestParseStreamPayload(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    ProgressEvent
	}{
		{
			name:    "json with progress",
			payload: `{"step":"script","progress":20,"message":"writing script"}`,
			want:    ProgressEvent{Step: "script", Percent: 20, HasPercent: true, Message: "writing script"},
		},
		{
			name:    "percentage alias",
			payload: `{"percentage":55.9}`,
			want:    ProgressEvent{Percent: 55, HasPercent: true},
		},
		{
			name:    "details as message",
			payload: `{"details":"rendering scene 3"}`,
			want:    ProgressEvent{Message: "rendering scene 3"},
		},
		{
			name:    "completed",
			payload: `{"progress":100,"completed":true}`,
			want:    ProgressEvent{Percent: 100, HasPercent: true, Completed: true},
		},
		{
			name:    "error",
			payload: `{"error":"render crashed"}`,
			want:    ProgressEvent{ErrorText: "render crashed"},
		},
		{
			name:    "plain text falls through",
			payload: `warming up workers`,
			want:    ProgressEvent{Message: "warming up workers"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseStreamPayload(tc.payload); got != tc.want {
				t.Fatalf("parseStreamPayload(%q) = %+v, want %+v", tc.payload, got, tc.want)
			}
		})
	}
}

// eventCollector gathers stream callbacks behind a lock so tests can poll.
type eventCollector struct {
	mu     sync.Mutex
	events []ProgressEvent
	errs   []error
}

func (ec *eventCollector) onEvent(ev ProgressEvent) {
	ec.mu.Lock()
	ec.events = append(ec.events, ev)
	ec.mu.Unlock()
}

func (ec *eventCollector) onError(err error) {
	ec.mu.Lock()
	ec.errs = append(ec.errs, err)
	ec.mu.Unlock()
}

func (ec *eventCollector) snapshot() ([]ProgressEvent, []error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return append([]ProgressEvent(nil), ec.events...), append([]error(nil), ec.errs...)
}

func waitForCollector(t *testing.T, what string, cond func() bool) {
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

func TestOpenProgressStreamDeliversEvents(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if accept := r.Header.Get("Accept"); accept != "text/event-stream" {
			t.Errorf("accept = %q", accept)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"step\":\"script\",\"progress\":20}\n\n")
		flusher.Flush()
		fmt.Fprint(w, ": heartbeat comment, must be ignored\n")
		fmt.Fprint(w, "data: {\"progress\":100,\"completed\":true}\n\n")
		flusher.Flush()
	}))

	ec := &eventCollector{}
	stream, err := c.OpenProgressStream(context.Background(), ec.onEvent, ec.onError)
	if err != nil {
		t.Fatalf("OpenProgressStream: %v", err)
	}
	defer stream.Close()

	waitForCollector(t, "two events", func() bool {
		events, _ := ec.snapshot()
		return len(events) == 2
	})
	events, _ := ec.snapshot()
	if events[0].Step != "script" || events[0].Percent != 20 {
		t.Fatalf("first event = %+v", events[0])
	}
	if !events[1].Completed {
		t.Fatalf("second event = %+v", events[1])
	}

	// The handler returned, so the connection drops and onError fires once.
	waitForCollector(t, "stream drop error", func() bool {
		_, errs := ec.snapshot()
		return len(errs) == 1
	})
}

func TestOpenProgressStreamRejectsNon200(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	if _, err := c.OpenProgressStream(context.Background(), func(ProgressEvent) {}, func(error) {}); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestStreamCloseSuppressesCallbacks(t *testing.T) {
	release := make(chan struct{})
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer close(release)

	ec := &eventCollector{}
	stream, err := c.OpenProgressStream(context.Background(), ec.onEvent, ec.onError)
	if err != nil {
		t.Fatalf("OpenProgressStream: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	events, errs := ec.snapshot()
	if len(events) != 0 || len(errs) != 0 {
		t.Fatalf("callbacks after Close: events=%v errs=%v", events, errs)
	}
}
