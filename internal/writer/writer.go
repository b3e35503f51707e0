// internal/writer/writer.go
package writer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/co2-monitor/internal/poller"
	wmqtt "github.com/tamzrod/co2-monitor/internal/writer/mqtt"
)

// Writer fans poll events out to every target.
type Writer struct {
	targets []Target
}

func New(targets ...Target) *Writer {
	return &Writer{targets: targets}
}

// Write delivers ev to all targets. A failing target does not stop the others.
func (w *Writer) Write(ev poller.Event) error {
	var errs []string

	for _, t := range w.targets {
		var err error
		switch {
		case ev.Err != nil:
			err = t.WriteError(ev.SensorID, ev.At, ev.Err)
		case ev.Reading != nil:
			err = t.WriteReading(ev.SensorID, *ev.Reading)
		default:
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("writer: target=%s err=%v", t.Name(), err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

// ------------------------------------------------------------
// LOG
// ------------------------------------------------------------

// LogTarget writes readings and errors to the process log.
type LogTarget struct {
	log zerolog.Logger
}

func NewLogTarget(log zerolog.Logger) *LogTarget {
	return &LogTarget{log: log.With().Str("component", "writer").Logger()}
}

func (t *LogTarget) Name() string { return "log" }

func (t *LogTarget) WriteReading(sensorID string, r poller.Reading) error {
	t.log.Info().Str("sensor", sensorID).Msgf("%dppm", r.PPM)
	return nil
}

func (t *LogTarget) WriteError(sensorID string, _ time.Time, err error) error {
	t.log.Error().Str("sensor", sensorID).Str("kind", string(poller.KindOf(err))).Msg(err.Error())
	return nil
}

// ------------------------------------------------------------
// MQTT
// ------------------------------------------------------------

type readingMessage struct {
	SensorID   string `json:"sensor_id"`
	PPM        uint16 `json:"ppm"`
	ObservedAt string `json:"observed_at"`
}

type errorMessage struct {
	SensorID string `json:"sensor_id"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	At       string `json:"at"`
}

// MQTTTarget publishes JSON readings and error events.
type MQTTTarget struct {
	pub    publisher
	prefix string
	qos    byte
}

func NewMQTTTarget(pub publisher, prefix string, qos byte) *MQTTTarget {
	return &MQTTTarget{pub: pub, prefix: prefix, qos: qos}
}

func (t *MQTTTarget) Name() string { return "mqtt" }

func (t *MQTTTarget) WriteReading(sensorID string, r poller.Reading) error {
	payload, err := json.Marshal(readingMessage{
		SensorID:   sensorID,
		PPM:        r.PPM,
		ObservedAt: r.ObservedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	topics := wmqtt.Topics{Prefix: t.prefix, SensorID: sensorID}
	return t.pub.Publish(topics.Reading(), payload, t.qos, false)
}

func (t *MQTTTarget) WriteError(sensorID string, at time.Time, err error) error {
	payload, mErr := json.Marshal(errorMessage{
		SensorID: sensorID,
		Kind:     string(poller.KindOf(err)),
		Message:  err.Error(),
		At:       at.UTC().Format(time.RFC3339Nano),
	})
	if mErr != nil {
		return mErr
	}
	topics := wmqtt.Topics{Prefix: t.prefix, SensorID: sensorID}
	return t.pub.Publish(topics.Error(), payload, t.qos, false)
}

// ------------------------------------------------------------
// INFLUXDB
// ------------------------------------------------------------

// InfluxTarget records readings as time-series points. Errors are not stored.
type InfluxTarget struct {
	w pointWriter
}

func NewInfluxTarget(w pointWriter) *InfluxTarget {
	return &InfluxTarget{w: w}
}

func (t *InfluxTarget) Name() string { return "influxdb" }

func (t *InfluxTarget) WriteReading(sensorID string, r poller.Reading) error {
	t.w.WriteCO2(sensorID, r.PPM, r.ObservedAt)
	return nil
}

func (t *InfluxTarget) WriteError(string, time.Time, error) error {
	return nil
}
