package subscription

import "errors"

var (
	// ErrSubscriptionNotFound is returned when a subscription row does not exist.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrVersionConflict is returned when an optimistic-lock update touched no rows.
	ErrVersionConflict = errors.New("subscription version conflict")

	// ErrInvalidEvent is returned for unrecognized provider event types.
	ErrInvalidEvent = errors.New("invalid subscription event")
)
