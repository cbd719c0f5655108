package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// jobRepo implements JobRepository on pgx. Exclusive claims rely on row
// locks: the claiming transaction selects the head row FOR UPDATE SKIP
// LOCKED, so concurrent claimers never see the same job.
type jobRepo struct {
	pool *pgxpool.Pool
}

func (r *jobRepo) Enqueue(ctx context.Context, submissionID int64) (*Job, error) {
	const q = `
INSERT INTO publish_queue (submission_id)
VALUES ($1)
RETURNING id, submission_id, attempts, enqueued_at`
	var j Job
	err := r.pool.QueryRow(ctx, q, submissionID).Scan(&j.ID, &j.SubmissionID, &j.Attempts, &j.EnqueuedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *jobRepo) Count(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM publish_queue WHERE NOT claimed`
	var n int
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *jobRepo) Claim(ctx context.Context) (*Job, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const selectQ = `
SELECT id, submission_id, attempts, enqueued_at
FROM publish_queue
WHERE NOT claimed
ORDER BY id
FOR UPDATE SKIP LOCKED
LIMIT 1`
	var j Job
	err = tx.QueryRow(ctx, selectQ).Scan(&j.ID, &j.SubmissionID, &j.Attempts, &j.EnqueuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoJobs
	}
	if err != nil {
		return nil, err
	}

	const updateQ = `
UPDATE publish_queue
SET claimed = TRUE, attempts = attempts + 1
WHERE id = $1
RETURNING attempts`
	if err := tx.QueryRow(ctx, updateQ, j.ID).Scan(&j.Attempts); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *jobRepo) Ack(ctx context.Context, job *Job) error {
	const q = `DELETE FROM publish_queue WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, job.ID)
	return err
}

func (r *jobRepo) Release(ctx context.Context, job *Job) error {
	const q = `UPDATE publish_queue SET claimed = FALSE WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, job.ID)
	return err
}

func (r *jobRepo) ResetClaims(ctx context.Context) (int, error) {
	const q = `UPDATE publish_queue SET claimed = FALSE WHERE claimed`
	tag, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
