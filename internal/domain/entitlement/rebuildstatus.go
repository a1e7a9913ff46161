package entitlement

// RebuildStatus represents the rebuild state of a snapshot. It gates
// decision confidence in the engine, not the quota state itself.
type RebuildStatus string

const (
	// RebuildStatusIdle indicates the snapshot is consistent and usable.
	RebuildStatusIdle RebuildStatus = "idle"
	// RebuildStatusRunning indicates a rebuild is in flight; the stored
	// feature map may be mid-replacement.
	RebuildStatusRunning RebuildStatus = "running"
	// RebuildStatusFailed indicates the last rebuild aborted and the
	// stored state may be partial.
	RebuildStatusFailed RebuildStatus = "failed"
)

// IsValid checks if the rebuild status is recognized.
func (rs RebuildStatus) IsValid() bool {
	switch rs {
	case RebuildStatusIdle, RebuildStatusRunning, RebuildStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the rebuild status.
func (rs RebuildStatus) String() string {
	return string(rs)
}

// IsStable reports whether gate decisions may trust the snapshot.
func (rs RebuildStatus) IsStable() bool {
	return rs == RebuildStatusIdle
}
