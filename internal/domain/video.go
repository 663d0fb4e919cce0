package domain

import "time"

// VideoStatus is the durable status of a persisted video record. The values
// match the generation backend's wire vocabulary.
type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// VideoRecord is the durable artifact record. It is created once a
// generation completes and outlives the in-memory generation job.
type VideoRecord struct {
	ID                 string
	UserID             string
	Title              string
	Prompt             string
	Voice              string
	DurationSeconds    int
	Status             VideoStatus
	ProcessingProgress int
	VideoURL           string
	ThumbnailURL       string
	ErrorMessage       string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
