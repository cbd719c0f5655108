// Package publish orchestrates the approved-submission publication pipeline:
// load, verify status, encode, upload, mark published. The queued worker and
// the immediate path share the same orchestration.
package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/example/towncal/internal/caldav"
	"github.com/example/towncal/internal/ical"
	"github.com/example/towncal/internal/metrics"
	"github.com/example/towncal/internal/store"
	"github.com/example/towncal/internal/submission"
)

// CalDAV is the slice of the protocol client the publisher needs.
type CalDAV interface {
	EnsureCollection(ctx context.Context, collectionURL string) error
	PutEvent(ctx context.Context, eventURL, icalText string) error
}

// Publisher pushes approved submissions to the CalDAV server.
type Publisher struct {
	submissions   store.SubmissionRepository
	dav           CalDAV
	collectionURL string
	uidHost       string
	logger        *slog.Logger
	now           func() time.Time
}

// NewPublisher wires a publisher. collectionURL is the target collection
// (trailing slash included); uidHost namespaces the stable event UIDs.
func NewPublisher(submissions store.SubmissionRepository, dav CalDAV, collectionURL, uidHost string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{
		submissions:   submissions,
		dav:           dav,
		collectionURL: collectionURL,
		uidHost:       uidHost,
		logger:        logger,
		now:           time.Now,
	}
}

// PublishByID is the queued-path entry point: it loads the submission and
// publishes without provisioning the collection (the worker assumes it
// already exists). A missing submission is a terminal error; callers drop
// the job since it will never resolve.
func (p *Publisher) PublishByID(ctx context.Context, submissionID int64) error {
	sub, err := p.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("load submission %d: %w", submissionID, err)
	}
	return p.publish(ctx, sub, false)
}

// PublishNow is the immediate path used when a moderator publishes from the
// review action: the collection is provisioned first and failures surface
// synchronously to the caller.
func (p *Publisher) PublishNow(ctx context.Context, sub *store.Submission) error {
	return p.publish(ctx, sub, true)
}

func (p *Publisher) publish(ctx context.Context, sub *store.Submission, ensureCollection bool) error {
	// Guard against stale queue entries after manual status changes: not a
	// failure, just nothing to do.
	if sub.Status != submission.StatusApproved {
		p.logger.Warn("submission is not approved, skipping publish",
			"submission_id", sub.ID, "status", sub.Status)
		metrics.CountPublishAttempt("skipped")
		return nil
	}

	uid := ical.UID(sub.ID, p.uidHost)
	body := ical.BuildSubmissionCalendar(uid, sub.Title, sub.Description, sub.Location, sub.Start, sub.End, p.now())

	if ensureCollection {
		if err := p.dav.EnsureCollection(ctx, p.collectionURL); err != nil {
			metrics.CountPublishAttempt("failed")
			return fmt.Errorf("ensure collection: %w", err)
		}
	}

	eventURL := p.collectionURL + caldav.EventResourceName(sub.ID, p.now())
	if err := p.dav.PutEvent(ctx, eventURL, body); err != nil {
		metrics.CountPublishAttempt("failed")
		return fmt.Errorf("publish submission %d: %w", sub.ID, err)
	}

	if err := p.submissions.MarkPublished(ctx, sub.ID); err != nil {
		// The event is on the server; a failed status write here leaves
		// the submission approved and the job retryable, which may upload
		// a duplicate resource. Documented at-least-once tradeoff.
		metrics.CountPublishAttempt("failed")
		return fmt.Errorf("mark submission %d published: %w", sub.ID, err)
	}
	sub.Status = submission.StatusPublished

	p.logger.Info("published submission", "submission_id", sub.ID, "event_url", eventURL)
	metrics.CountPublishAttempt("published")
	return nil
}
