// internal/poller/runner_test.go
package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/co2-monitor/internal/transport"
)

type countingFactory struct {
	mu    sync.Mutex
	calls int
	built []*fakeTransport
	make  func() (*fakeTransport, error)
}

func (f *countingFactory) factory() (transport.Transport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	tr, err := f.make()
	if err != nil {
		return nil, err
	}
	f.built = append(f.built, tr)
	return tr, nil
}

func (f *countingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *countingFactory) last() *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.built) == 0 {
		return nil
	}
	return f.built[len(f.built)-1]
}

func failingWrites() (*fakeTransport, error) {
	tr := newFakeTransport()
	tr.writeErr = errors.New("write failed")
	return tr, nil
}

func TestNewRunner_Validates(t *testing.T) {
	f := &countingFactory{make: func() (*fakeTransport, error) { return newFakeTransport(), nil }}

	if _, err := NewRunner(testConfig(time.Second), nil, RestartPolicy{}); err == nil {
		t.Fatalf("expected error for nil factory")
	}
	if _, err := NewRunner(testConfig(0), f.factory, RestartPolicy{}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := NewRunner(testConfig(time.Second), f.factory, RestartPolicy{Enabled: true}); err == nil {
		t.Fatalf("expected error for zero restart delay")
	}
}

func TestRunner_EmitsReadings(t *testing.T) {
	f := &countingFactory{make: func() (*fakeTransport, error) { return newFakeTransport(), nil }}

	r, err := NewRunner(testConfig(time.Hour), f.factory, RestartPolicy{})
	if err != nil {
		t.Fatalf("NewRunner() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Event, 4)
	result := make(chan error, 1)
	go func() { result <- r.Run(ctx, out) }()

	deadline := time.Now().Add(time.Second)
	for f.last() == nil || f.last().writeCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("runner never wrote a command")
		}
		time.Sleep(time.Millisecond)
	}
	f.last().feed(response(0x03, 0x20)...)

	select {
	case ev := <-out:
		if ev.Err != nil || ev.Reading == nil {
			t.Fatalf("expected reading event, got %+v", ev)
		}
		if ev.SensorID != "s1" || ev.Reading.PPM != 800 {
			t.Fatalf("unexpected event %+v ppm=%d", ev, ev.Reading.PPM)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for event")
	}

	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Run() after cancel err=%v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if !f.last().isClosed() {
		t.Fatalf("transport left open after cancel")
	}
}

func TestRunner_NoRestartByDefault(t *testing.T) {
	f := &countingFactory{make: failingWrites}

	r, err := NewRunner(testConfig(time.Second), f.factory, RestartPolicy{})
	if err != nil {
		t.Fatalf("NewRunner() err=%v", err)
	}

	out := make(chan Event, 4)
	err = r.Run(context.Background(), out)
	if !errors.Is(err, ErrTransportIO) {
		t.Fatalf("expected transport io error, got %v", err)
	}
	if f.count() != 1 {
		t.Fatalf("expected a single transport, got %d", f.count())
	}
	if len(out) != 1 {
		t.Fatalf("expected one error event, got %d", len(out))
	}
	if ev := <-out; KindOf(ev.Err) != KindTransportIO {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestRunner_RestartsUpToMaxAttempts(t *testing.T) {
	f := &countingFactory{make: failingWrites}

	r, err := NewRunner(testConfig(time.Second), f.factory, RestartPolicy{
		Enabled:     true,
		Delay:       time.Millisecond,
		MaxAttempts: 2,
	})
	if err != nil {
		t.Fatalf("NewRunner() err=%v", err)
	}

	out := make(chan Event, 8)
	if err := r.Run(context.Background(), out); !errors.Is(err, ErrTransportIO) {
		t.Fatalf("expected transport io error, got %v", err)
	}
	if f.count() != 3 {
		t.Fatalf("expected initial run + 2 restarts, got %d", f.count())
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 error events, got %d", len(out))
	}
}

func TestRunner_FactoryErrorIsOpenError(t *testing.T) {
	f := &countingFactory{make: func() (*fakeTransport, error) { return nil, errors.New("bad address") }}

	r, err := NewRunner(testConfig(time.Second), f.factory, RestartPolicy{})
	if err != nil {
		t.Fatalf("NewRunner() err=%v", err)
	}

	out := make(chan Event, 1)
	if err := r.Run(context.Background(), out); !errors.Is(err, ErrTransportOpen) {
		t.Fatalf("expected transport open error, got %v", err)
	}
	if ev := <-out; KindOf(ev.Err) != KindTransportOpen {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestRunner_CancelDuringRestartDelay(t *testing.T) {
	f := &countingFactory{make: failingWrites}

	r, err := NewRunner(testConfig(time.Second), f.factory, RestartPolicy{
		Enabled: true,
		Delay:   time.Hour,
	})
	if err != nil {
		t.Fatalf("NewRunner() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Event, 4)
	result := make(chan error, 1)
	go func() { result <- r.Run(ctx, out) }()

	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for first failure")
	}

	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("expected nil after cancel, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run blocked in restart delay after cancel")
	}
}
