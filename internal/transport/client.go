// Package transport is the client for the generation backend: request
// submission, the SSE progress stream, queue-task polling and the artifact
// preview lookup.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FallbackArtifactPath is served when the preview endpoint reports no
// artifact; kept for parity with the backend's static layout.
const FallbackArtifactPath = "/static/generated_videos/final_video.mp4"

// Options configures a Client.
type Options struct {
	BaseURL string
	// HTTPClient handles request/response calls. Optional.
	HTTPClient *http.Client
	// StreamClient handles the long-lived SSE request and must not carry a
	// client-wide timeout. Optional.
	StreamClient *http.Client
	Logger       *zerolog.Logger
}

// Client talks to one generation backend.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	log     zerolog.Logger
}

func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("transport: base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	streamClient := opts.StreamClient
	if streamClient == nil {
		streamClient = &http.Client{}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{baseURL: base, http: httpClient, stream: streamClient, log: logger}, nil
}

type submitResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	VideoID string `json:"video_id"`
	TaskID  string `json:"task_id"`
}

// Submit sends the generation request. Errors here mean no job was accepted;
// everything after a successful Submit surfaces through progress events.
func (c *Client) Submit(ctx context.Context, req Request) (SubmitResult, error) {
	if err := req.Validate(); err != nil {
		return SubmitResult{}, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit generation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return SubmitResult{}, fmt.Errorf("submit generation: backend returned %s", resp.Status)
	}
	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return SubmitResult{}, fmt.Errorf("decode submit response: %w", err)
	}
	if !sr.Success {
		msg := sr.Error
		if msg == "" {
			msg = "backend rejected the request"
		}
		return SubmitResult{}, fmt.Errorf("submit generation: %s", msg)
	}
	c.log.Debug().Str("video_id", sr.VideoID).Str("task_id", sr.TaskID).Msg("generation accepted")
	return SubmitResult{VideoID: sr.VideoID, TaskID: sr.TaskID}, nil
}

type taskResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Status       string   `json:"status"`
		Progress     *float64 `json:"progress"`
		ErrorMessage string   `json:"error_message"`
	} `json:"data"`
}

// TaskStatus fetches one snapshot of a queued task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (TaskState, error) {
	if taskID == "" {
		return TaskState{}, fmt.Errorf("task id is required")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/queue/tasks/"+taskID, nil)
	if err != nil {
		return TaskState{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return TaskState{}, fmt.Errorf("poll task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TaskState{}, fmt.Errorf("poll task: backend returned %s", resp.Status)
	}
	var tr taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return TaskState{}, fmt.Errorf("decode task response: %w", err)
	}
	if !tr.Success {
		return TaskState{}, fmt.Errorf("poll task: backend reported failure")
	}
	st := TaskState{Status: tr.Data.Status, ErrorMessage: tr.Data.ErrorMessage}
	if tr.Data.Progress != nil {
		st.Progress = int(*tr.Data.Progress)
		st.HasProgress = true
	}
	return st, nil
}

type previewResponse struct {
	Exists   bool   `json:"exists"`
	VideoURL string `json:"video_url"`
}

// VideoPreview resolves the completed artifact URL, falling back to the
// backend's static path when the preview endpoint has nothing.
func (c *Client) VideoPreview(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/video-preview", nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("fetch preview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch preview: backend returned %s", resp.Status)
	}
	var pr previewResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("decode preview response: %w", err)
	}
	if !pr.Exists || pr.VideoURL == "" {
		return c.baseURL + FallbackArtifactPath, nil
	}
	return pr.VideoURL, nil
}

// CheckHealth is a best-effort liveness probe with no side effects.
func (c *Client) CheckHealth(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
