package domain

import "time"

// Channel is a user-owned publishing destination for generated videos.
type Channel struct {
	ID           string
	UserID       string
	Name         string
	Platform     string
	Handle       string
	DefaultVoice string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
