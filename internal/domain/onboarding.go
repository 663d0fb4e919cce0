package domain

import "time"

// OnboardingState tracks how far a user has progressed through first-run setup.
type OnboardingState struct {
	UserID      string
	Step        int
	Completed   bool
	CompletedAt *time.Time
	UpdatedAt   time.Time
}
