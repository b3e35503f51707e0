// internal/poller/builder.go
package poller

import (
	"time"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/co2-monitor/internal/config"
	"github.com/tamzrod/co2-monitor/internal/transport"
)

// Build constructs a Runner and wires the serial transport lifecycle.
// Every (re)start gets a fresh transport from the factory.
// Config must already be validated and normalized.
func Build(c cfg.Config, log zerolog.Logger) (*Runner, error) {
	serialCfg := transport.SerialConfig{
		Address:     c.Sensor.DevicePath,
		BaudRate:    c.Sensor.BaudRate,
		ReadTimeout: time.Duration(c.Sensor.ReadTimeoutMs) * time.Millisecond,
	}

	// transport factory: ONE attempt per call
	factory := func() (transport.Transport, error) {
		s, err := transport.NewSerial(serialCfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	// fail fast at startup on unusable line config
	if _, err := factory(); err != nil {
		return nil, err
	}

	return NewRunner(
		Config{
			SensorID:        c.Sensor.ID,
			CommandInterval: time.Duration(c.Poll.CommandIntervalMs) * time.Millisecond,
			ResponseTimeout: time.Duration(c.Poll.ResponseTimeoutMs) * time.Millisecond,
			VerifyChecksum:  c.Poll.VerifyChecksum,
			Logger:          log,
		},
		factory,
		RestartPolicy{
			Enabled:     c.Poll.Restart.Enabled,
			Delay:       time.Duration(c.Poll.Restart.DelayMs) * time.Millisecond,
			MaxAttempts: c.Poll.Restart.MaxAttempts,
		},
	)
}
