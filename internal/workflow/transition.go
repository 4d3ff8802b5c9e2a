// Package workflow holds the purchase-request lifecycle rules as pure
// functions, decoupled from the storage layer so they can be tested without a
// database.
package workflow

import (
	"fmt"

	"backend/internal/model"
)

// ErrInvalidTransition rejects a status change outside the allowed lifecycle.
type ErrInvalidTransition struct {
	From string
	To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid status transition %q -> %q", e.From, e.To)
}

// Transition validates a requested status change. The only legal moves are
// pending->approved and pending->rejected; terminal states never change.
// A no-op (same status) is allowed so that full-entity saves keep working.
func Transition(current, next string) (string, error) {
	if current == next {
		return next, nil
	}
	if current == model.StatusPending &&
		(next == model.StatusApproved || next == model.StatusRejected) {
		return next, nil
	}
	return "", &ErrInvalidTransition{From: current, To: next}
}

// IsTerminal reports whether a status permits no further transitions
func IsTerminal(status string) bool {
	return status == model.StatusApproved || status == model.StatusRejected
}

// RequiredApprovalLevels returns the fixed set of approver roles that must all
// record an affirmative decision before a request becomes approved.
func RequiredApprovalLevels() []string {
	return []string{model.RoleApproverLevel1, model.RoleApproverLevel2}
}

// AllLevelsApproved reports whether every required level appears in the set of
// roles that recorded an approved=true decision. Order is irrelevant; extra
// roles are ignored.
func AllLevelsApproved(approvedRoles []string) bool {
	seen := make(map[string]bool, len(approvedRoles))
	for _, r := range approvedRoles {
		seen[r] = true
	}
	for _, level := range RequiredApprovalLevels() {
		if !seen[level] {
			return false
		}
	}
	return true
}
