// internal/transport/serial.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

const (
	// DefaultBaudRate is the only rate the sensor protocol uses.
	DefaultBaudRate = 9600

	// defaultReadTimeout bounds how long the reader waits before re-checking shutdown.
	defaultReadTimeout = 200 * time.Millisecond

	readBufferSize = 64
)

// SerialConfig is minimal line config. Framing is fixed at 8N1.
type SerialConfig struct {
	Address     string
	BaudRate    int
	ReadTimeout time.Duration
}

// Serial implements Transport on a serial line using goburrow/serial.
// A Serial is single-use: once closed it cannot be reopened.
type Serial struct {
	cfg SerialConfig

	mu     sync.Mutex
	port   serial.Port
	closed bool

	chunks    chan Chunk
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewSerial creates an unopened serial transport.
func NewSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.Address == "" {
		return nil, errors.New("transport: serial address required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	return &Serial{
		cfg:    cfg,
		chunks: make(chan Chunk, 16),
		done:   make(chan struct{}),
	}, nil
}

// Open opens the device and starts the reader goroutine.
func (s *Serial) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.port != nil {
		return fmt.Errorf("transport: %s already open", s.cfg.Address)
	}

	port, err := serial.Open(&serial.Config{
		Address:  s.cfg.Address,
		BaudRate: s.cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  s.cfg.ReadTimeout,
	})
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", s.cfg.Address, err)
	}
	s.port = port

	s.wg.Add(1)
	go s.readLoop(port)

	return nil
}

// Write sends p to the device.
func (s *Serial) Write(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.port == nil {
		return ErrClosed
	}

	n, err := s.port.Write(p)
	if err != nil {
		return fmt.Errorf("transport: write %s: %w", s.cfg.Address, err)
	}
	if n != len(p) {
		return fmt.Errorf("transport: write %s: %w", s.cfg.Address, io.ErrShortWrite)
	}
	return nil
}

// Chunks implements Transport.
func (s *Serial) Chunks() <-chan Chunk {
	return s.chunks
}

// Close stops the reader and closes the device.
// The reader exits within one read timeout; the descriptor is released
// only after it has returned, so it never reads a reused fd.
// The chunk channel is closed once the reader has exited.
func (s *Serial) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.done)
		s.wg.Wait()

		s.mu.Lock()
		if s.port != nil {
			err = s.port.Close()
		}
		s.mu.Unlock()

		close(s.chunks)
	})
	return err
}

func (s *Serial) readLoop(port serial.Port) {
	defer s.wg.Done()

	buf := make([]byte, readBufferSize)
	for {
		n, err := port.Read(buf)

		select {
		case <-s.done:
			return
		default:
		}

		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !s.deliver(Chunk{Data: data}) {
				return
			}
		}

		if err == nil && n == 0 {
			err = io.EOF
		}
		if err == nil {
			continue
		}
		if errors.Is(err, serial.ErrTimeout) {
			continue
		}

		s.deliver(Chunk{Err: fmt.Errorf("transport: read %s: %w", s.cfg.Address, err)})
		return
	}
}

func (s *Serial) deliver(c Chunk) bool {
	select {
	case s.chunks <- c:
		return true
	case <-s.done:
		return false
	}
}
