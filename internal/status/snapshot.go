// internal/status/snapshot.go
package status

import "time"

// Snapshot represents exactly what the status writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16

	// LastPPM is the most recent reading; zero until the first one.
	LastPPM    uint16
	LastReadAt time.Time
}

// HealthName returns the lowercase name of a health code.
func HealthName(h uint16) string {
	switch h {
	case HealthUnknown:
		return "unknown"
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStopped:
		return "stopped"
	default:
		return "invalid"
	}
}
