// Package transport abstracts the byte-stream link to the sensor.
//
// A Transport is owned by exactly one poll loop at a time. Incoming bytes
// are delivered asynchronously on Chunks with no guaranteed chunk
// boundaries or minimum size.
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by Write on a transport that is not open.
var ErrClosed = errors.New("transport: closed")

// Chunk is one bytes_available event.
// Exactly one of Data or Err is set.
type Chunk struct {
	Data []byte
	Err  error
}

// Transport is the contract the poll loop depends on.
type Transport interface {
	// Open acquires the link. It fails if the device cannot be opened.
	Open(ctx context.Context) error

	// Write sends p in full or returns an error.
	Write(ctx context.Context, p []byte) error

	// Chunks delivers received bytes and read failures.
	// The channel is closed once the transport is closed.
	Chunks() <-chan Chunk

	// Close releases the link. Best effort, safe to call more than once.
	Close() error
}
