package store

import "errors"

// ErrNotFound indicates a missing record lookup.
var ErrNotFound = errors.New("record not found")

// ErrNoJobs indicates an empty (or fully claimed) publish queue.
var ErrNoJobs = errors.New("no jobs available")
