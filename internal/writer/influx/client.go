// Package influx writes readings to InfluxDB v2 through the non-blocking write API.
package influx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	defaultConnectTimeout = 10 * time.Second

	// Measurement is the InfluxDB measurement name for readings.
	Measurement = "co2"

	millisecondsPerSecond = 1000
)

// ErrConnectionFailed is returned when the server is unreachable or unhealthy.
var ErrConnectionFailed = errors.New("influx: connection failed")

// Config is the InfluxDB connection config.
type Config struct {
	URL           string
	Token         string
	Org           string
	Bucket        string
	BatchSize     int
	FlushInterval int // seconds
}

// Client batches points asynchronously.
// Write failures surface through the OnError callback, not from WriteCO2.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	mu      sync.RWMutex
	onError func(err error)
	closed  bool
}

// Connect creates the client and verifies the server with a ping.
func Connect(cfg Config) (*Client, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
	}
	go c.handleWriteErrors(c.writeAPI.Errors())

	return c, nil
}

func (c *Client) handleWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		c.mu.RLock()
		callback := c.onError
		c.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// SetOnError sets the callback for asynchronous write failures.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	c.onError = callback
	c.mu.Unlock()
}

// WriteCO2 queues one reading. Non-blocking.
func (c *Client) WriteCO2(sensorID string, ppm uint16, at time.Time) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}

	c.writeAPI.WritePoint(NewPoint(sensorID, ppm, at))
}

// NewPoint builds the point for one reading.
func NewPoint(sensorID string, ppm uint16, at time.Time) *write.Point {
	return write.NewPoint(
		Measurement,
		map[string]string{"sensor": sensorID},
		map[string]interface{}{"ppm": int64(ppm)},
		at,
	)
}

// Close flushes pending points and closes the client. Safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeAPI.Flush()
	c.client.Close()
	return nil
}
