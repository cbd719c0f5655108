package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/towncal/internal/submission"
)

// submissionRepo implements SubmissionRepository on pgx.
type submissionRepo struct {
	pool *pgxpool.Pool
}

const submissionColumns = `id, title, description, location, start_at, end_at, owner_id, status, created_at, updated_at`

func scanSubmission(row pgx.Row) (*Submission, error) {
	var s Submission
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Location, &s.Start, &s.End, &s.OwnerID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepo) Create(ctx context.Context, sub Submission) (*Submission, error) {
	const q = `
INSERT INTO submissions (title, description, location, start_at, end_at, owner_id, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + submissionColumns
	return scanSubmission(r.pool.QueryRow(ctx, q,
		sub.Title, sub.Description, sub.Location, sub.Start, sub.End, sub.OwnerID, sub.Status))
}

func (r *submissionRepo) GetByID(ctx context.Context, id int64) (*Submission, error) {
	const q = `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	return scanSubmission(r.pool.QueryRow(ctx, q, id))
}

func (r *submissionRepo) Update(ctx context.Context, sub *Submission) error {
	const q = `
UPDATE submissions
SET title = $2, description = $3, location = $4, start_at = $5, end_at = $6, updated_at = now()
WHERE id = $1
RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q,
		sub.ID, sub.Title, sub.Description, sub.Location, sub.Start, sub.End).Scan(&sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *submissionRepo) SetStatus(ctx context.Context, id int64, status submission.Status) error {
	const q = `UPDATE submissions SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *submissionRepo) MarkPublished(ctx context.Context, id int64) error {
	const q = `
UPDATE submissions SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3`
	tag, err := r.pool.Exec(ctx, q, id, submission.StatusPublished, submission.StatusApproved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *submissionRepo) List(ctx context.Context, filter SubmissionFilter) ([]Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions`
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	q += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Location, &s.Start, &s.End, &s.OwnerID, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
