// internal/status/tracker.go
package status

import (
	"errors"

	"github.com/tamzrod/co2-monitor/internal/poller"
)

// Tracker owns the sensor Snapshot and moves it on poll events.
// Not safe for concurrent use: one orchestrator goroutine owns it.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state by value.
func (t *Tracker) Snapshot() Snapshot {
	return t.snap
}

// Apply folds one event into the snapshot and reports whether it changed.
func (t *Tracker) Apply(ev poller.Event) bool {
	before := t.snap

	if ev.Err == nil && ev.Reading != nil {
		// Recovery / OK
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = ErrorCodeNone
		t.snap.SecondsInError = 0
		t.snap.LastPPM = ev.Reading.PPM
		t.snap.LastReadAt = ev.Reading.ObservedAt
	} else if ev.Err != nil {
		t.snap.Health = HealthError
		t.snap.LastErrorCode = ErrorCode(ev.Err)
		// seconds_in_error increments on Tick only.
	}

	return t.snap != before
}

// Tick advances seconds_in_error by one while the sensor is not OK.
// Call at 1 Hz. The counter saturates and never wraps.
func (t *Tracker) Tick() bool {
	if t.snap.Health == HealthOK || t.snap.Health == HealthStopped {
		return false
	}
	if t.snap.SecondsInError >= MaxSecondsInError {
		return false
	}
	t.snap.SecondsInError++
	return true
}

// MarkStopped records a deliberate shutdown.
func (t *Tracker) MarkStopped() bool {
	if t.snap.Health == HealthStopped {
		return false
	}
	t.snap.Health = HealthStopped
	return true
}

// ErrorCode extracts a best-effort uint16 code from an error.
// Errors exposing Code() win; otherwise the poller taxonomy decides.
// Unclassified errors return ErrorCodeGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return ErrorCodeNone
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	switch poller.KindOf(err) {
	case poller.KindTransportOpen:
		return ErrorCodeTransportOpen
	case poller.KindTransportIO:
		return ErrorCodeTransportIO
	case poller.KindProtocol:
		return ErrorCodeProtocol
	default:
		return ErrorCodeGeneric
	}
}
