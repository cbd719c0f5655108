package store

import (
	"context"

	"github.com/example/towncal/internal/submission"
)

// SubmissionFilter narrows List queries.
type SubmissionFilter struct {
	Status submission.Status // empty = all
	Limit  int
	Offset int
}

// SubmissionRepository defines persistence operations for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, sub Submission) (*Submission, error)
	GetByID(ctx context.Context, id int64) (*Submission, error)
	Update(ctx context.Context, sub *Submission) error
	// SetStatus unconditionally records a moderation transition.
	SetStatus(ctx context.Context, id int64, status submission.Status) error
	// MarkPublished sets status=published only if the row is still
	// approved, guarding against concurrent manual status changes.
	MarkPublished(ctx context.Context, id int64) error
	List(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
}

// JobRepository is the durable publish queue: at-least-once FIFO with
// claim/ack/release visibility semantics. Claim must be atomic and
// exclusive; two concurrent claimers never receive the same job.
type JobRepository interface {
	Enqueue(ctx context.Context, submissionID int64) (*Job, error)
	// Count reports visible (unclaimed) queue depth.
	Count(ctx context.Context) (int, error)
	// Claim removes the head job from visibility and returns it, with its
	// attempt counter already incremented. Returns ErrNoJobs when nothing
	// is claimable.
	Claim(ctx context.Context) (*Job, error)
	// Ack permanently removes a claimed job.
	Ack(ctx context.Context, job *Job) error
	// Release returns a claimed job to the queue for a future claim.
	Release(ctx context.Context, job *Job) error
	// ResetClaims makes every claimed job visible again and reports how
	// many were reset. Run at startup: the single worker process never
	// resumes a claim across a restart, so surviving claims belong to a
	// run that died mid-batch.
	ResetClaims(ctx context.Context) (int, error)
}
