// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/co2-monitor/internal/status"
	wmqtt "github.com/tamzrod/co2-monitor/internal/writer/mqtt"
)

// StatusWriter is the delivery-only contract for sensor status.
// It receives a snapshot and writes it verbatim.
// No logic, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// statusWriter publishes the retained status document over MQTT.
type statusWriter struct {
	pub      publisher
	topic    string
	sensorID string
	qos      byte

	needFull bool
	last     status.Snapshot
}

// NewStatusWriter builds the MQTT status writer for one sensor.
func NewStatusWriter(pub publisher, prefix, sensorID string, qos byte) *statusWriter {
	return &statusWriter{
		pub:      pub,
		topic:    wmqtt.Topics{Prefix: prefix, SensorID: sensorID}.Status(),
		sensorID: sensorID,
		qos:      qos,
		needFull: true, // always assert on first write
		last:     status.Snapshot{Health: status.HealthUnknown},
	}
}

// WriteStatus publishes s unless it equals the last delivered snapshot.
// After a failed publish the next call always re-asserts.
func (sw *statusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.pub == nil {
		return errors.New("status writer: disabled")
	}

	if !sw.needFull && s == sw.last {
		return nil
	}

	if err := sw.pub.Publish(sw.topic, status.Encode(sw.sensorID, s), sw.qos, true); err != nil {
		sw.needFull = true
		return fmt.Errorf("status writer: publish failed: %w", err)
	}

	sw.needFull = false
	sw.last = s
	return nil
}

// willPayload is the retained document the broker publishes if the process vanishes.
func willPayload(sensorID string) []byte {
	return status.Encode(sensorID, status.Snapshot{Health: status.HealthUnknown})
}
