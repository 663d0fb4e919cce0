// Package devserver emulates the generation backend for local development
// and tests: it accepts submissions, walks a scripted progress timeline, and
// serves the same wire protocol the real backend exposes (POST /generate,
// GET /stream, GET /api/queue/tasks/{id}, GET /api/video-preview,
// GET /health).
package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clipforge/internal/middleware"
	"clipforge/internal/storage"
)

// Config wires a Server.
type Config struct {
	Logger zerolog.Logger
	Files  *storage.FileStore
	// StaticBaseURL prefixes artifact URLs handed to clients.
	StaticBaseURL string
	// StepInterval is the delay between scripted progress steps. Zero means
	// 700ms; tests use a few milliseconds.
	StepInterval time.Duration
	// QueueMode makes submissions go through the emulated work queue: the
	// response carries a task_id and progress is served by the poll endpoint
	// as well as the stream.
	QueueMode bool
}

// Server is the emulated backend.
type Server struct {
	log        zerolog.Logger
	files      *storage.FileStore
	staticBase string
	interval   time.Duration
	queueMode  bool

	hub *hub

	mu           sync.Mutex
	jobs         map[string]*genJob // keyed by task id
	lastArtifact string
}

func New(cfg Config) *Server {
	interval := cfg.StepInterval
	if interval <= 0 {
		interval = 700 * time.Millisecond
	}
	return &Server{
		log:        cfg.Logger,
		files:      cfg.Files,
		staticBase: strings.TrimRight(cfg.StaticBaseURL, "/"),
		interval:   interval,
		queueMode:  cfg.QueueMode,
		hub:        newHub(),
		jobs:       make(map[string]*genJob),
	}
}

// Router builds the chi handler for the emulated wire protocol.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.CORS, middleware.Logger(s.log))

	r.Get("/health", s.handleHealth)
	r.Post("/generate", s.handleGenerate)
	r.Get("/stream", s.handleStream)
	r.Get("/api/queue/tasks/{taskID}", s.handleTaskStatus)
	r.Get("/api/video-preview", s.handleVideoPreview)

	if s.files != nil {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(s.files.Root())))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	return r
}

type generateRequest struct {
	Prompt      string `json:"prompt"`
	Voice       string `json:"voice"`
	Duration    int    `json:"duration"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid payload"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" || strings.TrimSpace(req.Voice) == "" || req.Duration <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "prompt, voice and duration are required"})
		return
	}

	job := s.newJob(req)
	go job.run()

	resp := map[string]any{"success": true, "video_id": job.videoID}
	if s.queueMode {
		resp["task_id"] = job.taskID
	}
	s.log.Info().Str("video_id", job.videoID).Bool("queued", s.queueMode).Msg("generation accepted")
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	// Subscribe before the response goes out so a submission racing the
	// stream handshake cannot slip its first event past us.
	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	s.mu.Lock()
	job := s.jobs[taskID]
	s.mu.Unlock()
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "unknown task"})
		return
	}
	status, progress, errMsg := job.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"status":        status,
			"progress":      progress,
			"error_message": errMsg,
		},
	})
}

func (s *Server) handleVideoPreview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	url := s.lastArtifact
	s.mu.Unlock()
	if url == "" {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": true, "video_url": url})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) newJob(req generateRequest) *genJob {
	job := &genJob{
		server:  s,
		videoID: uuid.NewString(),
		taskID:  uuid.NewString(),
		req:     req,
		status:  "pending",
	}
	s.mu.Lock()
	s.jobs[job.taskID] = job
	s.mu.Unlock()
	return job
}

func (s *Server) setArtifact(url string) {
	s.mu.Lock()
	s.lastArtifact = url
	s.mu.Unlock()
}
