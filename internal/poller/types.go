// internal/poller/types.go
package poller

import "time"

// Reading is one decoded measurement.
// Produced only from a validated frame.
type Reading struct {
	PPM        uint16
	ObservedAt time.Time
}

// Sink receives everything the loop observes.
// Calls arrive from a single goroutine, in detection order.
type Sink interface {
	Reading(r Reading)
	Error(err error)
}

// Event is what a Runner emits per reading or error.
// Exactly one of Reading or Err is set.
type Event struct {
	SensorID string
	At       time.Time

	Reading *Reading
	Err     error // non-nil means the cycle failed
}

// SinkFuncs adapts two functions to a Sink. Nil functions drop the call.
type SinkFuncs struct {
	OnReading func(Reading)
	OnError   func(error)
}

func (s SinkFuncs) Reading(r Reading) {
	if s.OnReading != nil {
		s.OnReading(r)
	}
}

func (s SinkFuncs) Error(err error) {
	if s.OnError != nil {
		s.OnError(err)
	}
}

// State is the loop lifecycle.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateIdle
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}
