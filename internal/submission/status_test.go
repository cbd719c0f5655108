package submission

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"submitted to under_review", StatusSubmitted, StatusUnderReview, true},
		{"submitted to approved", StatusSubmitted, StatusApproved, true},
		{"submitted to rejected", StatusSubmitted, StatusRejected, true},
		{"under_review to approved", StatusUnderReview, StatusApproved, true},
		{"under_review to rejected", StatusUnderReview, StatusRejected, true},
		{"under_review back to submitted", StatusUnderReview, StatusSubmitted, false},
		{"submitted directly to published", StatusSubmitted, StatusPublished, false},
		{"approved to published", StatusApproved, StatusPublished, false},
		{"rejected to anything", StatusRejected, StatusSubmitted, false},
		{"published to anything", StatusPublished, StatusSubmitted, false},
		{"approved back to submitted", StatusApproved, StatusSubmitted, false},
		{"self transition", StatusSubmitted, StatusSubmitted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCheckTransition(t *testing.T) {
	moderator := Actor{ID: 1, Moderator: true}
	user := Actor{ID: 2}

	if err := CheckTransition(moderator, StatusSubmitted, StatusApproved); err != nil {
		t.Errorf("moderator approval should be allowed, got %v", err)
	}

	if err := CheckTransition(user, StatusSubmitted, StatusApproved); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("non-moderator approval should be denied, got %v", err)
	}

	// Structural validity is checked before permission.
	if err := CheckTransition(user, StatusRejected, StatusApproved); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("transition out of rejected should be invalid, got %v", err)
	}

	if err := CheckTransition(moderator, StatusApproved, StatusPublished); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("published must not be a selectable target, got %v", err)
	}
}

func TestCanEdit(t *testing.T) {
	owner := int64(7)
	other := int64(8)

	tests := []struct {
		name    string
		actor   Actor
		ownerID *int64
		status  Status
		want    bool
	}{
		{"owner while submitted", Actor{ID: owner}, &owner, StatusSubmitted, true},
		{"owner after review started", Actor{ID: owner}, &owner, StatusUnderReview, false},
		{"other user", Actor{ID: other}, &owner, StatusSubmitted, false},
		{"anonymous actor", Actor{Anonymous: true}, &owner, StatusSubmitted, false},
		{"anonymous submission", Actor{ID: owner}, nil, StatusSubmitted, false},
		{"moderator while approved", Actor{ID: other, Moderator: true}, &owner, StatusApproved, true},
		{"moderator after publish", Actor{ID: other, Moderator: true}, &owner, StatusPublished, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEdit(tt.actor, tt.ownerID, tt.status); got != tt.want {
				t.Errorf("CanEdit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected, StatusPublished} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("archived").Valid() {
		t.Error("unknown status should not be valid")
	}
}
