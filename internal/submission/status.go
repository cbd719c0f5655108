package submission

import "errors"

// Status is the moderation state of a calendar submission.
type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusPublished   Status = "published"
)

var (
	// ErrInvalidTransition indicates the requested status change is not
	// part of the moderation lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPermissionDenied indicates the acting user may not perform the
	// requested change.
	ErrPermissionDenied = errors.New("permission denied")
)

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected, StatusPublished:
		return true
	}
	return false
}

// Terminal reports whether no moderation transition leads out of s.
// published is only reachable through the publish pipeline and rejected is
// final, so neither has outgoing edges here.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusPublished
}

// transitions lists the structurally legal moderation moves. published is
// deliberately absent as a target: it is set by the publisher after a
// successful PUT, never chosen directly.
var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusUnderReview, StatusApproved, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected},
}

// CanTransition reports whether the moderation lifecycle allows from -> to.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Actor is the identity attempting a change, as established by the
// surrounding request context.
type Actor struct {
	ID        int64
	Anonymous bool
	Moderator bool
}

// CheckTransition validates a moderation transition for the given actor.
// It returns ErrInvalidTransition for moves outside the lifecycle and
// ErrPermissionDenied when the actor lacks the moderator capability.
func CheckTransition(actor Actor, from, to Status) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	if !actor.Moderator {
		return ErrPermissionDenied
	}
	return nil
}

// CanEdit reports whether the actor may modify content fields of a
// submission owned by ownerID (nil for anonymous submissions) in the given
// status. Owners may edit only while the submission is still in the
// submitted state; moderators may edit anything not yet published.
func CanEdit(actor Actor, ownerID *int64, status Status) bool {
	if actor.Moderator {
		return status != StatusPublished
	}
	if actor.Anonymous || ownerID == nil {
		return false
	}
	return *ownerID == actor.ID && status == StatusSubmitted
}
