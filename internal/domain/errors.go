package domain

import "errors"

var (
	// ErrInvalidTransition means the requested trigger has no edge from the
	// booking's current status.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrStaleVersion means the caller lost an optimistic-concurrency race
	// and must re-fetch the booking before retrying.
	ErrStaleVersion = errors.New("stale booking version")
	// ErrForbidden means the actor's role or assignment does not permit the
	// operation.
	ErrForbidden = errors.New("forbidden")
	// ErrAmountMismatch means a payment confirmation carried an amount that
	// differs from the persisted intent.
	ErrAmountMismatch = errors.New("payment amount mismatch")
	// ErrAlreadyAssigned means the role slot is held by a different staff
	// member.
	ErrAlreadyAssigned = errors.New("role already assigned")
	// ErrNotApproved means an injection was attempted on a line item the
	// diagnosis did not clear.
	ErrNotApproved = errors.New("line item not approved for injection")
	// ErrReconciliationFailed means a confirmed payment could not be applied
	// to its booking within the retry budget; operator intervention needed.
	ErrReconciliationFailed = errors.New("payment reconciliation failed")
	// ErrNotFound is returned for unknown booking, order or record ids.
	ErrNotFound = errors.New("not found")
)
