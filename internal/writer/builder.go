// internal/writer/builder.go
package writer

import (
	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/co2-monitor/internal/config"
	winflux "github.com/tamzrod/co2-monitor/internal/writer/influx"
	wmqtt "github.com/tamzrod/co2-monitor/internal/writer/mqtt"
)

// Sinks is everything the orchestrator delivers to.
type Sinks struct {
	Writer *Writer

	// Status is nil when the status document is disabled.
	Status StatusWriter

	// Close releases every client. Safe to call once.
	Close func() error
}

// Build connects the enabled clients and assembles the targets.
// The log target is always present.
// Assumes config has already been validated and normalized.
func Build(c cfg.Config, log zerolog.Logger) (Sinks, error) {
	targets := []Target{NewLogTarget(log)}

	var closers []func() error
	closeAll := func() error {
		var last error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				last = err
			}
		}
		return last
	}

	var statusW StatusWriter

	if c.MQTT.Enabled {
		mc, err := wmqtt.Connect(wmqtt.Config{
			Host:        c.MQTT.Broker.Host,
			Port:        c.MQTT.Broker.Port,
			TLS:         c.MQTT.Broker.TLS,
			ClientID:    c.MQTT.Broker.ClientID,
			Username:    c.MQTT.Auth.Username,
			Password:    c.MQTT.Auth.Password,
			WillTopic:   wmqtt.Topics{Prefix: c.MQTT.TopicPrefix, SensorID: c.Sensor.ID}.Status(),
			WillPayload: willPayload(c.Sensor.ID),
		})
		if err != nil {
			_ = closeAll()
			return Sinks{}, err
		}
		closers = append(closers, mc.Close)

		qos := byte(c.MQTT.QoS)
		targets = append(targets, NewMQTTTarget(mc, c.MQTT.TopicPrefix, qos))

		if c.Status.Enabled {
			statusW = NewStatusWriter(mc, c.MQTT.TopicPrefix, c.Sensor.ID, qos)
		}
	}

	if c.InfluxDB.Enabled {
		ic, err := winflux.Connect(winflux.Config{
			URL:           c.InfluxDB.URL,
			Token:         c.InfluxDB.Token,
			Org:           c.InfluxDB.Org,
			Bucket:        c.InfluxDB.Bucket,
			BatchSize:     c.InfluxDB.BatchSize,
			FlushInterval: c.InfluxDB.FlushInterval,
		})
		if err != nil {
			_ = closeAll()
			return Sinks{}, err
		}
		ilog := log.With().Str("component", "influxdb").Logger()
		ic.SetOnError(func(err error) {
			ilog.Error().Err(err).Msg("async write failed")
		})
		closers = append(closers, ic.Close)

		targets = append(targets, NewInfluxTarget(ic))
	}

	return Sinks{
		Writer: New(targets...),
		Status: statusW,
		Close:  closeAll,
	}, nil
}
