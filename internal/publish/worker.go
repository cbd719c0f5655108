package publish

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/example/towncal/internal/metrics"
	"github.com/example/towncal/internal/store"
)

// Retryable reports whether a publish failure may succeed on a later
// attempt. Transport and protocol failures are retryable; a missing
// submission never resolves.
func Retryable(err error) bool {
	return !errors.Is(err, store.ErrNotFound)
}

// Worker drains the publish queue in batches. Scheduling (cron tick or the
// manual admin action) is the caller's concern.
type Worker struct {
	jobs        store.JobRepository
	publisher   *Publisher
	batchSize   int
	maxAttempts int
	logger      *slog.Logger
}

// NewWorker wires a queue worker. maxAttempts is the retry ceiling per job;
// once a claim pushes a job past it, the job is dropped with a permanent
// failure log instead of being released again.
func NewWorker(jobs store.JobRepository, publisher *Publisher, batchSize, maxAttempts int, logger *slog.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = 5
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Worker{jobs: jobs, publisher: publisher, batchSize: batchSize, maxAttempts: maxAttempts, logger: logger}
}

// BatchSize returns the configured per-batch claim limit.
func (w *Worker) BatchSize() int { return w.batchSize }

// Run processes one batch with the configured size; used as the cron entry
// point.
func (w *Worker) Run(ctx context.Context) {
	processed, err := w.ProcessBatch(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("queue batch ended with failure", "processed", processed, "error", err)
		return
	}
	if processed > 0 {
		w.logger.Info("queue batch complete", "processed", processed)
	}
}

// ProcessBatch claims up to limit jobs and publishes each. The first
// failure releases (or drops, at the retry ceiling) that job and stops the
// batch early. Returns the number of jobs acked.
func (w *Worker) ProcessBatch(ctx context.Context, limit int) (int, error) {
	processed := 0

	for processed < limit {
		job, err := w.jobs.Claim(ctx)
		if errors.Is(err, store.ErrNoJobs) {
			break
		}
		if err != nil {
			return processed, err
		}

		err = w.publisher.PublishByID(ctx, job.SubmissionID)
		switch {
		case err == nil:
			if err := w.jobs.Ack(ctx, job); err != nil {
				return processed, err
			}
			processed++

		case !Retryable(err):
			// The submission is gone; retrying cannot help.
			w.logger.Error("dropping publish job for missing submission",
				"job_id", job.ID, "submission_id", job.SubmissionID, "error", err)
			metrics.CountPublishAttempt("dropped")
			if err := w.jobs.Ack(ctx, job); err != nil {
				return processed, err
			}
			processed++

		default:
			if job.Attempts >= w.maxAttempts {
				w.logger.Error("dropping publish job after exhausting retries",
					"job_id", job.ID, "submission_id", job.SubmissionID,
					"attempts", job.Attempts, "error", err)
				metrics.CountPublishAttempt("dropped")
				if ackErr := w.jobs.Ack(ctx, job); ackErr != nil {
					return processed, ackErr
				}
			} else {
				w.logger.Error("publish failed, releasing job for retry",
					"job_id", job.ID, "submission_id", job.SubmissionID,
					"attempts", job.Attempts, "error", err)
				if relErr := w.jobs.Release(ctx, job); relErr != nil {
					return processed, relErr
				}
			}
			w.updateDepth(ctx)
			return processed, err
		}
	}

	w.updateDepth(ctx)
	return processed, nil
}

func (w *Worker) updateDepth(ctx context.Context) {
	if n, err := w.jobs.Count(ctx); err == nil {
		metrics.SetQueueDepth(n)
	}
}
