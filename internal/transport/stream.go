package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Stream is an open SSE progress subscription. Close tears the connection
// down; after Close neither callback fires again.
type Stream struct {
	cancel context.CancelFunc
	body   io.Closer
	once   sync.Once
	closed chan struct{}
}

func (s *Stream) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.cancel()
		_ = s.body.Close()
	})
	return nil
}

// OpenProgressStream connects to the backend's SSE endpoint and invokes
// onEvent for each message. onError fires at most once, when the channel
// drops before Close. The stream is one-directional; there is no
// acknowledgement or backpressure.
func (c *Client) OpenProgressStream(ctx context.Context, onEvent func(ProgressEvent), onError func(error)) (io.Closer, error) {
	ctx, cancel := context.WithCancel(ctx)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stream", nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open progress stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("open progress stream: backend returned %s", resp.Status)
	}

	s := &Stream{cancel: cancel, body: resp.Body, closed: make(chan struct{})}
	go s.consume(resp.Body, c, onEvent, onError)
	return s, nil
}

func (s *Stream) consume(body io.Reader, c *Client, onEvent func(ProgressEvent), onError func(error)) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		ev := parseStreamPayload(payload)
		select {
		case <-s.closed:
			return
		default:
		}
		onEvent(ev)
	}

	select {
	case <-s.closed:
		return
	default:
	}
	err := scanner.Err()
	if err == nil {
		err = fmt.Errorf("progress stream closed by backend")
	}
	c.log.Debug().Err(err).Msg("progress stream ended")
	onError(err)
}

// streamMessage mirrors the backend's SSE payload. Older backends report
// percentage instead of progress; both are accepted.
type streamMessage struct {
	Step       *string  `json:"step"`
	Progress   *float64 `json:"progress"`
	Percentage *float64 `json:"percentage"`
	Message    string   `json:"message"`
	Details    string   `json:"details"`
	Completed  *bool    `json:"completed"`
	Error      *string  `json:"error"`
}

// parseStreamPayload decodes one SSE payload. Payloads that are not JSON
// objects are treated as plain-text informational messages.
func parseStreamPayload(payload string) ProgressEvent {
	var msg streamMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return ProgressEvent{Message: payload}
	}
	ev := ProgressEvent{Message: msg.Message}
	if ev.Message == "" {
		ev.Message = msg.Details
	}
	if msg.Step != nil {
		ev.Step = *msg.Step
	}
	pct := msg.Progress
	if pct == nil {
		pct = msg.Percentage
	}
	if pct != nil {
		ev.Percent = int(*pct)
		ev.HasPercent = true
	}
	if msg.Completed != nil && *msg.Completed {
		ev.Completed = true
	}
	if msg.Error != nil && *msg.Error != "" {
		ev.ErrorText = *msg.Error
	}
	return ev
}
