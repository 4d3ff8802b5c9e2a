package service

import "errors"

// Action-level failures surfaced to the HTTP layer. Document-pipeline
// failures never appear here; they are absorbed and recorded as data.
var (
	// ErrPermissionDenied covers role and ownership check failures; no state is mutated
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotPending rejects decisions on requests that already left pending
	ErrNotPending = errors.New("request is not pending")
	// ErrNotApproved rejects receipt submission before full approval
	ErrNotApproved = errors.New("can only submit receipts for approved requests")
)
