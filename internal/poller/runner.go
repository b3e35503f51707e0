// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tamzrod/co2-monitor/internal/transport"
)

// Factory returns a fresh, unopened transport. ONE attempt per call.
type Factory func() (transport.Transport, error)

// RestartPolicy decides what happens after the loop halts on a transport error.
// The zero value never restarts.
type RestartPolicy struct {
	Enabled bool
	Delay   time.Duration

	// MaxAttempts caps consecutive restarts without a reading. 0 = unlimited.
	MaxAttempts int
}

// Runner supervises one Loop and emits Events.
type Runner struct {
	cfg     Config
	factory Factory
	restart RestartPolicy
}

// NewRunner creates a runner with immutable config.
func NewRunner(cfg Config, factory Factory, restart RestartPolicy) (*Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, errors.New("poller: transport factory required")
	}
	if restart.Enabled && restart.Delay <= 0 {
		return nil, errors.New("poller: restart delay must be > 0")
	}
	if restart.MaxAttempts < 0 {
		return nil, errors.New("poller: restart max attempts must be >= 0")
	}
	return &Runner{cfg: cfg, factory: factory, restart: restart}, nil
}

// Run starts the loop and emits one Event per reading or error on out.
// One goroutine per sensor. No overlap between loops.
//
// Run returns nil when ctx is done, or the last error once the loop has
// halted and the restart policy gives up.
func (r *Runner) Run(ctx context.Context, out chan<- Event) error {
	log := r.cfg.Logger.With().Str("component", "runner").Str("sensor", r.cfg.SensorID).Logger()

	failures := 0
	for {
		gotReading, err := r.runOnce(ctx, out)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			// Loop stopped without a failure; nothing to supervise.
			return nil
		}
		if gotReading {
			failures = 0
		}
		if !r.restart.Enabled {
			return err
		}

		failures++
		if r.restart.MaxAttempts > 0 && failures > r.restart.MaxAttempts {
			log.Error().Err(err).Int("attempts", failures-1).Msg("giving up")
			return err
		}

		log.Warn().Err(err).Dur("delay", r.restart.Delay).Int("attempt", failures).Msg("restarting")

		t := time.NewTimer(r.restart.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, out chan<- Event) (bool, error) {
	sink := &chanSink{ctx: ctx, out: out, sensorID: r.cfg.SensorID, now: r.cfg.Now}

	tr, err := r.factory()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTransportOpen, err)
		sink.Error(err)
		return false, err
	}

	loop, err := Start(ctx, tr, r.cfg, sink)
	if err != nil {
		return false, err
	}

	select {
	case <-ctx.Done():
	case <-loop.Done():
	}
	loop.Stop()

	return sink.readings.Load() > 0, loop.Err()
}

// chanSink forwards Sink calls as Events. Sends give up once ctx is done.
type chanSink struct {
	ctx      context.Context
	out      chan<- Event
	sensorID string
	now      func() time.Time

	readings atomic.Int64
}

func (s *chanSink) Reading(rd Reading) {
	s.readings.Add(1)
	s.emit(Event{SensorID: s.sensorID, At: rd.ObservedAt, Reading: &rd})
}

func (s *chanSink) Error(err error) {
	at := time.Now()
	if s.now != nil {
		at = s.now()
	}
	s.emit(Event{SensorID: s.sensorID, At: at, Err: err})
}

func (s *chanSink) emit(ev Event) {
	select {
	case s.out <- ev:
	case <-s.ctx.Done():
	}
}
