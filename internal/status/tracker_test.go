// internal/status/tracker_test.go
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tamzrod/co2-monitor/internal/poller"
)

type codedErr struct{ code uint16 }

func (e codedErr) Error() string { return fmt.Sprintf("coded %d", e.code) }
func (e codedErr) Code() uint16  { return e.code }

func readingEvent(ppm uint16, at time.Time) poller.Event {
	return poller.Event{SensorID: "s1", At: at, Reading: &poller.Reading{PPM: ppm, ObservedAt: at}}
}

func errorEvent(err error) poller.Event {
	return poller.Event{SensorID: "s1", At: time.Now(), Err: err}
}

// ---- tests ----

func TestTracker_StartsUnknown(t *testing.T) {
	tr := NewTracker()
	if h := tr.Snapshot().Health; h != HealthUnknown {
		t.Fatalf("expected unknown, got %d", h)
	}
}

func TestTracker_ErrorThenRecovery(t *testing.T) {
	tr := NewTracker()

	ioErr := fmt.Errorf("%w: boom", poller.ErrTransportIO)
	if !tr.Apply(errorEvent(ioErr)) {
		t.Fatalf("error must change snapshot")
	}
	s := tr.Snapshot()
	if s.Health != HealthError || s.LastErrorCode != ErrorCodeTransportIO {
		t.Fatalf("unexpected snapshot %+v", s)
	}

	// Same error again: no change.
	if tr.Apply(errorEvent(ioErr)) {
		t.Fatalf("repeated identical error must not change snapshot")
	}

	for i := 0; i < 3; i++ {
		if !tr.Tick() {
			t.Fatalf("tick %d must advance while in error", i)
		}
	}
	if got := tr.Snapshot().SecondsInError; got != 3 {
		t.Fatalf("expected 3 seconds in error, got %d", got)
	}

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !tr.Apply(readingEvent(612, at)) {
		t.Fatalf("recovery must change snapshot")
	}
	s = tr.Snapshot()
	if s.Health != HealthOK || s.LastErrorCode != 0 || s.SecondsInError != 0 {
		t.Fatalf("recovery did not reset: %+v", s)
	}
	if s.LastPPM != 612 || !s.LastReadAt.Equal(at) {
		t.Fatalf("reading not recorded: %+v", s)
	}

	if tr.Tick() {
		t.Fatalf("tick must not advance while OK")
	}
}

func TestTracker_SecondsSaturate(t *testing.T) {
	tr := NewTracker()
	tr.Apply(errorEvent(errors.New("x")))
	tr.snap.SecondsInError = MaxSecondsInError - 1

	if !tr.Tick() {
		t.Fatalf("expected final increment")
	}
	if tr.Tick() {
		t.Fatalf("counter must saturate")
	}
	if tr.Snapshot().SecondsInError != MaxSecondsInError {
		t.Fatalf("unexpected counter %d", tr.Snapshot().SecondsInError)
	}
}

func TestTracker_Stopped(t *testing.T) {
	tr := NewTracker()
	if !tr.MarkStopped() {
		t.Fatalf("first stop must change snapshot")
	}
	if tr.MarkStopped() {
		t.Fatalf("second stop must be a no-op")
	}
	if tr.Tick() {
		t.Fatalf("stopped sensor must not count seconds")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want uint16
	}{
		{"nil", nil, ErrorCodeNone},
		{"open", fmt.Errorf("%w: x", poller.ErrTransportOpen), ErrorCodeTransportOpen},
		{"io", fmt.Errorf("%w: x", poller.ErrTransportIO), ErrorCodeTransportIO},
		{"protocol", fmt.Errorf("%w: x", poller.ErrProtocol), ErrorCodeProtocol},
		{"generic", errors.New("x"), ErrorCodeGeneric},
		{"coded", fmt.Errorf("wrapped: %w", codedErr{code: 77}), 77},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Fatalf("ErrorCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	b := Encode("office", Snapshot{
		Health:     HealthOK,
		LastPPM:    415,
		LastReadAt: at,
	})

	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if doc["sensor_id"] != "office" || doc["health"] != "ok" {
		t.Fatalf("unexpected document %s", b)
	}
	if doc["last_ppm"].(float64) != 415 {
		t.Fatalf("unexpected last_ppm in %s", b)
	}
	if doc["last_read_at"] != "2026-03-04T05:06:07Z" {
		t.Fatalf("unexpected last_read_at in %s", b)
	}

	// boot state omits reading fields
	b = Encode("office", Snapshot{})
	var boot map[string]any
	if err := json.Unmarshal(b, &boot); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := boot["last_read_at"]; ok {
		t.Fatalf("boot document must omit last_read_at: %s", b)
	}
	if _, ok := boot["last_ppm"]; ok {
		t.Fatalf("boot document must omit last_ppm: %s", b)
	}
}

func TestEncode_ZeroPPMReading(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	b := Encode("office", Snapshot{Health: HealthOK, LastPPM: 0, LastReadAt: at})

	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	ppm, ok := doc["last_ppm"]
	if !ok {
		t.Fatalf("0 ppm reading dropped from %s", b)
	}
	if ppm.(float64) != 0 {
		t.Fatalf("unexpected last_ppm in %s", b)
	}
}
