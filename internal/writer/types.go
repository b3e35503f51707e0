// internal/writer/types.go
package writer

import (
	"time"

	"github.com/tamzrod/co2-monitor/internal/poller"
)

// Target is one delivery destination for poll events.
type Target interface {
	Name() string
	WriteReading(sensorID string, r poller.Reading) error
	WriteError(sensorID string, at time.Time, err error) error
}

// publisher is the exact MQTT contract the targets use.
type publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// pointWriter is the exact time-series contract the influx target uses.
type pointWriter interface {
	WriteCO2(sensorID string, ppm uint16, at time.Time)
}
