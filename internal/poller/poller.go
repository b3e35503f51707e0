// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/co2-monitor/internal/frame"
	"github.com/tamzrod/co2-monitor/internal/transport"
)

// DefaultCommandInterval is the wait between a decoded response and the next request.
const DefaultCommandInterval = 5 * time.Second

// Config is the minimal runtime config the loop needs.
type Config struct {
	SensorID        string
	CommandInterval time.Duration

	// ResponseTimeout re-issues the command when no response arrives in time.
	// Zero waits indefinitely.
	ResponseTimeout time.Duration

	// VerifyChecksum rejects frames whose checksum byte does not match.
	VerifyChecksum bool

	Logger zerolog.Logger

	// Now stamps readings. Defaults to time.Now.
	Now func() time.Time
}

func (c Config) validate() error {
	if c.SensorID == "" {
		return errors.New("poller: sensor id required")
	}
	if c.CommandInterval <= 0 {
		return errors.New("poller: command interval must be > 0")
	}
	if c.ResponseTimeout < 0 {
		return errors.New("poller: response timeout must be >= 0")
	}
	return nil
}

// Loop drives one request/response/delay cycle over one Transport.
//
// The receive buffer, the outstanding flag and the timers are owned by the
// loop goroutine. Sink calls are made from that goroutine only.
type Loop struct {
	cfg  Config
	tr   transport.Transport
	sink Sink
	dec  frame.Decoder
	log  zerolog.Logger

	buf         []byte
	outstanding bool

	state atomic.Int32

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	err      error
}

// Start opens tr, issues the first read command and serves the cycle
// until Stop, ctx cancellation, or a transport failure.
//
// If tr cannot be opened, a TransportOpenError is delivered to sink,
// returned, and no loop is started.
func Start(ctx context.Context, tr transport.Transport, cfg Config, sink Sink) (*Loop, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, errors.New("poller: transport required")
	}
	if sink == nil {
		sink = SinkFuncs{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	l := &Loop{
		cfg:  cfg,
		tr:   tr,
		sink: sink,
		dec:  frame.Decoder{VerifyChecksum: cfg.VerifyChecksum},
		log:  cfg.Logger.With().Str("component", "poller").Str("sensor", cfg.SensorID).Logger(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	l.setState(StateOpening)
	if err := tr.Open(ctx); err != nil {
		err = fmt.Errorf("%w: %w", ErrTransportOpen, err)
		l.log.Debug().Err(err).Msg("Failed to open port")
		sink.Error(err)
		_ = tr.Close()
		l.setState(StateClosed)
		return nil, err
	}
	l.log.Debug().Msg("Port open")
	l.setState(StateIdle)

	go l.run(ctx)
	return l, nil
}

// Stop halts the loop and closes the transport.
// It is idempotent. After Stop returns no further writes or Sink calls occur.
// Stop must not be called from inside a Sink callback.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

// Done is closed once the loop has halted and released the transport.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Err reports why the loop halted. Nil while running or after a clean stop.
func (l *Loop) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	defer l.shutdown()

	var next, deadline cycleTimer
	defer next.stop()
	defer deadline.stop()

	if !l.issue(ctx) {
		return
	}
	deadline.arm(l.cfg.ResponseTimeout)

	chunks := l.tr.Chunks()
	for {
		select {
		case <-l.stop:
			return

		case <-ctx.Done():
			return

		case c, ok := <-chunks:
			if !ok {
				l.fail(fmt.Errorf("%w: transport closed", ErrTransportIO))
				return
			}
			if c.Err != nil {
				l.fail(fmt.Errorf("%w: %w", ErrTransportIO, c.Err))
				return
			}
			if l.consume(c.Data) {
				deadline.stop()
				next.arm(l.cfg.CommandInterval)
			}

		case <-next.C():
			next.fired()

			// Stop may have raced the timer.
			select {
			case <-l.stop:
				return
			default:
			}

			if !l.issue(ctx) {
				return
			}
			deadline.arm(l.cfg.ResponseTimeout)

		case <-deadline.C():
			deadline.fired()
			l.log.Warn().Dur("timeout", l.cfg.ResponseTimeout).Msg("no response, re-issuing command")
			if !l.issue(ctx) {
				return
			}
			deadline.arm(l.cfg.ResponseTimeout)
		}
	}
}

// issue writes the read command. On failure the error is reported and false returned.
func (l *Loop) issue(ctx context.Context) bool {
	l.log.Debug().Msg("Writing to serial port...")
	if err := l.tr.Write(ctx, frame.EncodeReadCommand()); err != nil {
		if ctx.Err() != nil {
			return false
		}
		l.fail(fmt.Errorf("%w: %w", ErrTransportIO, err))
		return false
	}
	l.outstanding = true
	return true
}

// consume appends data and extracts every complete frame.
// It reports whether a response completed the outstanding request.
func (l *Loop) consume(data []byte) (completed bool) {
	l.buf = append(l.buf, data...)

	for len(l.buf) > 0 {
		res := l.dec.TryExtract(l.buf)

		switch res.Kind {
		case frame.Incomplete:
			l.discard(res.Consumed)
			return completed

		case frame.Valid:
			l.sink.Reading(Reading{
				PPM:        res.Frame.PPM,
				ObservedAt: l.cfg.Now(),
			})
			if l.outstanding {
				l.outstanding = false
				completed = true
			}

		case frame.Corrupt:
			err := fmt.Errorf("%w: checksum mismatch", ErrProtocol)
			l.log.Debug().Err(err).Msg("frame rejected")
			l.sink.Error(err)
			if l.outstanding {
				l.outstanding = false
				completed = true
			}

		case frame.Invalid:
			l.log.Debug().Int("dropped", res.Consumed).Msg("resync")
		}

		l.discard(res.Consumed)
	}

	return completed
}

// discard drops n leading bytes, reusing the backing array.
func (l *Loop) discard(n int) {
	if n <= 0 {
		return
	}
	l.buf = append(l.buf[:0], l.buf[n:]...)
}

// fail records err and reports it once, through the sink.
func (l *Loop) fail(err error) {
	l.err = err
	l.log.Debug().Err(err).Msg("polling halted")
	l.sink.Error(err)
}

func (l *Loop) shutdown() {
	l.buf = nil
	l.outstanding = false
	l.log.Debug().Msg("Closing serial port")
	_ = l.tr.Close()
	l.setState(StateClosed)
}

// cycleTimer is a stoppable one-shot. A disarmed timer's channel is nil,
// so its select case never fires.
type cycleTimer struct {
	t *time.Timer
}

func (c *cycleTimer) arm(d time.Duration) {
	c.stop()
	if d > 0 {
		c.t = time.NewTimer(d)
	}
}

func (c *cycleTimer) C() <-chan time.Time {
	if c.t == nil {
		return nil
	}
	return c.t.C
}

func (c *cycleTimer) fired() {
	c.t = nil
}

func (c *cycleTimer) stop() {
	if c.t != nil {
		c.t.Stop()
		c.t = nil
	}
}
