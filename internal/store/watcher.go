package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"clipforge/internal/domain"
)

// Watcher listens on the video_changes channel and dispatches row snapshots
// to subscribers keyed by record id. It holds one dedicated connection; all
// subscribers share it.
type Watcher struct {
	pool *pgxpool.Pool
	log  zerolog.Logger

	mu   sync.Mutex
	next int
	subs map[string]map[int]func(domain.VideoRecord)
}

func NewWatcher(pool *pgxpool.Pool, logger zerolog.Logger) *Watcher {
	return &Watcher{
		pool: pool,
		log:  logger,
		subs: make(map[string]map[int]func(domain.VideoRecord)),
	}
}

// Subscription is one registered callback. Close unregisters it; Close is
// idempotent and never fails.
type Subscription struct {
	w       *Watcher
	videoID string
	token   int
	once    sync.Once
}

func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.w.mu.Lock()
		defer s.w.mu.Unlock()
		if set, ok := s.w.subs[s.videoID]; ok {
			delete(set, s.token)
			if len(set) == 0 {
				delete(s.w.subs, s.videoID)
			}
		}
	})
	return nil
}

// Subscribe registers fn for changes to one video record.
func (w *Watcher) Subscribe(videoID string, fn func(domain.VideoRecord)) *Subscription {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next++
	set, ok := w.subs[videoID]
	if !ok {
		set = make(map[int]func(domain.VideoRecord))
		w.subs[videoID] = set
	}
	set[w.next] = fn
	return &Subscription{w: w, videoID: videoID, token: w.next}
}

// Run blocks on the notification loop until ctx is cancelled. Connection
// failures are retried with a short delay; notifications sent while the
// connection is down are lost, which is why callers treat this feed as a
// snapshot stream rather than a log.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		if err := w.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Warn().Err(err).Msg("watcher: listen loop failed, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "listen video_changes"); err != nil {
		return err
	}
	w.log.Debug().Msg("watcher: listening on video_changes")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		w.dispatch([]byte(n.Payload))
	}
}

func (w *Watcher) dispatch(payload []byte) {
	rec, err := decodeVideoChange(payload)
	if err != nil {
		w.log.Warn().Err(err).Msg("watcher: undecodable payload")
		return
	}

	w.mu.Lock()
	set := w.subs[rec.ID]
	fns := make([]func(domain.VideoRecord), 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(rec)
	}
}

// videoChangePayload mirrors row_to_json output from the videos_notify trigger.
type videoChangePayload struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Title              string    `json:"title"`
	Prompt             string    `json:"prompt"`
	Voice              string    `json:"voice"`
	DurationSeconds    int       `json:"duration_seconds"`
	Status             string    `json:"status"`
	ProcessingProgress int       `json:"processing_progress"`
	VideoURL           string    `json:"video_url"`
	ThumbnailURL       string    `json:"thumbnail_url"`
	ErrorMessage       string    `json:"error_message"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func decodeVideoChange(payload []byte) (domain.VideoRecord, error) {
	var p videoChangePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.VideoRecord{}, err
	}
	return domain.VideoRecord{
		ID:                 p.ID,
		UserID:             p.UserID,
		Title:              p.Title,
		Prompt:             p.Prompt,
		Voice:              p.Voice,
		DurationSeconds:    p.DurationSeconds,
		Status:             domain.VideoStatus(p.Status),
		ProcessingProgress: p.ProcessingProgress,
		VideoURL:           p.VideoURL,
		ThumbnailURL:       p.ThumbnailURL,
		ErrorMessage:       p.ErrorMessage,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}, nil
}
