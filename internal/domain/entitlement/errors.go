package entitlement

import "errors"

var (
	// ErrSnapshotNotFound is returned when a snapshot row does not exist.
	ErrSnapshotNotFound = errors.New("entitlement snapshot not found")

	// ErrVersionConflict is returned when an optimistic-lock update
	// touched no rows because a concurrent writer advanced the version.
	ErrVersionConflict = errors.New("snapshot version conflict")

	// ErrFeatureNotInSnapshot is returned when consuming a feature the
	// snapshot does not carry.
	ErrFeatureNotInSnapshot = errors.New("feature not present in snapshot")

	// ErrQuotaExhausted is returned when consuming a feature with no
	// remaining plan quota.
	ErrQuotaExhausted = errors.New("feature quota exhausted")
)
