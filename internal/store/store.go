package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store aggregates repositories backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool

	Submissions SubmissionRepository
	Jobs        JobRepository
}

// New wires concrete repository implementations with a shared pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:        pool,
		Submissions: &submissionRepo{pool: pool},
		Jobs:        &jobRepo{pool: pool},
	}
}

// HealthCheck verifies that the underlying database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
