package store

import (
	"time"

	"github.com/example/towncal/internal/submission"
)

// Submission is a user-submitted calendar event moving through moderation.
type Submission struct {
	ID          int64
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         *time.Time
	OwnerID     *int64 // nil for anonymous submissions
	Status      submission.Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Job is one pending "publish this submission" unit of work. ID doubles as
// the FIFO position; Attempts counts claims including the current one.
type Job struct {
	ID           int64
	SubmissionID int64
	Attempts     int
	EnqueuedAt   time.Time
}
