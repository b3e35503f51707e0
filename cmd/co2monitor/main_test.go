// cmd/co2monitor/main_test.go
package main

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/co2-monitor/internal/poller"
	"github.com/tamzrod/co2-monitor/internal/status"
	"github.com/tamzrod/co2-monitor/internal/writer"
)

// ---- fake status writer ----

type recordStatus struct {
	mu    sync.Mutex
	snaps []status.Snapshot
}

func (r *recordStatus) WriteStatus(s status.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
	return nil
}

func (r *recordStatus) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recordStatus) last() status.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps[len(r.snaps)-1]
}

func (r *recordStatus) waitCount(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for r.count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %d status writes, got %d", n, r.count())
		}
		time.Sleep(time.Millisecond)
	}
}

type harness struct {
	out    chan poller.Event
	runErr chan error
	tick   chan time.Time
	st     *recordStatus
	result chan error
}

func startOrchestrator() *harness {
	h := &harness{
		out:    make(chan poller.Event),
		runErr: make(chan error, 1),
		tick:   make(chan time.Time),
		st:     &recordStatus{},
		result: make(chan error, 1),
	}
	sinks := writer.Sinks{Writer: writer.New(), Status: h.st}
	go func() {
		h.result <- orchestrate(zerolog.Nop(), h.out, h.runErr, h.tick, sinks)
	}()
	return h
}

func (h *harness) finish(t *testing.T, err error) error {
	t.Helper()
	h.runErr <- err
	select {
	case got := <-h.result:
		return got
	case <-time.After(time.Second):
		t.Fatalf("orchestrate did not return")
		return nil
	}
}

// ---- tests ----

func TestOrchestrate_TicksWhileInError(t *testing.T) {
	h := startOrchestrator()
	h.st.waitCount(t, 1) // boot status

	if h.st.last().Health != status.HealthUnknown {
		t.Fatalf("boot status should be unknown, got %+v", h.st.last())
	}

	h.out <- poller.Event{
		SensorID: "office",
		At:       time.Now(),
		Err:      fmt.Errorf("%w: %w", poller.ErrTransportIO, errors.New("unplugged")),
	}
	h.st.waitCount(t, 2)

	h.tick <- time.Now()
	h.tick <- time.Now()
	h.st.waitCount(t, 4)

	s := h.st.last()
	if s.Health != status.HealthError || s.LastErrorCode != status.ErrorCodeTransportIO || s.SecondsInError != 2 {
		t.Fatalf("unexpected snapshot %+v", s)
	}

	// Recovery resets the counter, ticks then stop writing.
	h.out <- poller.Event{SensorID: "office", At: time.Now(), Reading: &poller.Reading{PPM: 0, ObservedAt: time.Now()}}
	h.st.waitCount(t, 5)
	h.tick <- time.Now()

	s = h.st.last()
	if s.Health != status.HealthOK || s.SecondsInError != 0 {
		t.Fatalf("unexpected snapshot after recovery %+v", s)
	}

	if err := h.finish(t, nil); err != nil {
		t.Fatalf("orchestrate err=%v", err)
	}
	if n := h.st.count(); n != 6 {
		t.Fatalf("expected tick while OK to be silent and one stopped write, got %d writes", n)
	}
}

func TestOrchestrate_CleanExitMarksStopped(t *testing.T) {
	h := startOrchestrator()
	h.st.waitCount(t, 1)

	if err := h.finish(t, nil); err != nil {
		t.Fatalf("orchestrate err=%v", err)
	}
	if h.st.last().Health != status.HealthStopped {
		t.Fatalf("expected stopped status, got %+v", h.st.last())
	}
}

func TestOrchestrate_HaltReturnsRunnerError(t *testing.T) {
	h := startOrchestrator()
	h.st.waitCount(t, 1)

	halt := fmt.Errorf("%w: closed", poller.ErrTransportIO)
	if err := h.finish(t, halt); !errors.Is(err, poller.ErrTransportIO) {
		t.Fatalf("expected runner error, got %v", err)
	}
	if h.st.last().Health == status.HealthStopped {
		t.Fatalf("halt must not be reported as a deliberate stop")
	}
}

func TestOrchestrate_NoStatusWriter(t *testing.T) {
	out := make(chan poller.Event)
	runErr := make(chan error, 1)
	result := make(chan error, 1)

	go func() {
		result <- orchestrate(zerolog.Nop(), out, runErr, nil, writer.Sinks{Writer: writer.New()})
	}()

	out <- poller.Event{SensorID: "office", At: time.Now(), Reading: &poller.Reading{PPM: 415}}
	runErr <- nil

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("orchestrate err=%v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("orchestrate did not return")
	}
}
