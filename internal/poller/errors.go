// internal/poller/errors.go
package poller

import "errors"

// Error taxonomy surfaced to the Sink.
// Framing desync is recovered locally and never appears here.
var (
	// ErrTransportOpen means the device could not be opened. The loop does not start.
	ErrTransportOpen = errors.New("transport open error")

	// ErrTransportIO means a write or read failed mid-run. The loop halts.
	ErrTransportIO = errors.New("transport io error")

	// ErrProtocol means a frame failed validation beyond marker and command.
	// Only raised when checksum verification is enabled.
	ErrProtocol = errors.New("protocol error")
)

// ErrorKind names an error class for structured events.
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindTransportOpen ErrorKind = "TransportOpenError"
	KindTransportIO   ErrorKind = "TransportIOError"
	KindProtocol      ErrorKind = "ProtocolError"
	KindUnclassified  ErrorKind = "Error"
)

// KindOf classifies err against the taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTransportOpen):
		return KindTransportOpen
	case errors.Is(err, ErrTransportIO):
		return KindTransportIO
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	default:
		return KindUnclassified
	}
}
