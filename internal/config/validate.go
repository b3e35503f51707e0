// internal/config/validate.go
package config

import (
	"fmt"
)

// RequiredBaudRate is the only line rate the sensor protocol supports.
const RequiredBaudRate = 9600

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	// ------------------------------------------------------------
	// SENSOR
	// ------------------------------------------------------------

	s := cfg.Sensor
	if s.ID == "" {
		return fmt.Errorf("sensor: id required")
	}
	for i := 0; i < len(s.ID); i++ {
		c := s.ID[i]
		// id is used verbatim in MQTT topics
		if c <= 0x20 || c > 0x7E || c == '/' || c == '+' || c == '#' {
			return fmt.Errorf("sensor %q: id must be printable ASCII without spaces, '/', '+' or '#'", s.ID)
		}
	}
	if s.DevicePath == "" {
		return fmt.Errorf("sensor %q: device_path required", s.ID)
	}
	if s.BaudRate != 0 && s.BaudRate != RequiredBaudRate {
		return fmt.Errorf("sensor %q: baud_rate must be %d, got %d", s.ID, RequiredBaudRate, s.BaudRate)
	}
	if s.ReadTimeoutMs < 0 {
		return fmt.Errorf("sensor %q: read_timeout_ms must be >= 0", s.ID)
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------

	p := cfg.Poll
	if p.CommandIntervalMs < 0 {
		return fmt.Errorf("poll: command_interval_ms must be >= 0 (0 = default)")
	}
	if p.ResponseTimeoutMs < 0 {
		return fmt.Errorf("poll: response_timeout_ms must be >= 0")
	}
	if p.Restart.DelayMs < 0 {
		return fmt.Errorf("poll.restart: delay_ms must be >= 0")
	}
	if p.Restart.MaxAttempts < 0 {
		return fmt.Errorf("poll.restart: max_attempts must be >= 0")
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	switch cfg.Logging.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error", "disabled":
	default:
		return fmt.Errorf("logging: unknown level %q", cfg.Logging.Level)
	}

	// ------------------------------------------------------------
	// MQTT
	// ------------------------------------------------------------

	m := cfg.MQTT
	if m.Enabled {
		if m.Broker.Host == "" {
			return fmt.Errorf("mqtt: broker.host required when enabled")
		}
		if m.Broker.Port < 0 || m.Broker.Port > 65535 {
			return fmt.Errorf("mqtt: broker.port %d out of range", m.Broker.Port)
		}
		if m.QoS < 0 || m.QoS > 2 {
			return fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", m.QoS)
		}
	}

	// ------------------------------------------------------------
	// INFLUXDB
	// ------------------------------------------------------------

	ix := cfg.InfluxDB
	if ix.Enabled {
		if ix.URL == "" {
			return fmt.Errorf("influxdb: url required when enabled")
		}
		if ix.Org == "" || ix.Bucket == "" {
			return fmt.Errorf("influxdb: org and bucket required when enabled")
		}
		if ix.BatchSize < 0 || ix.FlushInterval < 0 {
			return fmt.Errorf("influxdb: batch_size and flush_interval must be >= 0")
		}
	}

	// ------------------------------------------------------------
	// STATUS (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Status.Enabled && !m.Enabled {
		return fmt.Errorf("status: enabled but mqtt is disabled")
	}

	return nil
}
