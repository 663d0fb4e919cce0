package domain

import "time"

// QueueItem is a deferred generation request waiting in the user's queue.
type QueueItem struct {
	ID        string
	UserID    string
	Prompt    string
	Voice     string
	Duration  int
	Position  int
	CreatedAt time.Time
}
