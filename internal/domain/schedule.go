package domain

import "time"

// ScheduledVideo ties a video to a channel at a future publish time.
type ScheduledVideo struct {
	ID        string
	UserID    string
	VideoID   string
	ChannelID string
	PublishAt time.Time
	CreatedAt time.Time
}
