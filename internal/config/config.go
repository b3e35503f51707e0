// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sensor   SensorConfig   `yaml:"sensor"`
	Poll     PollConfig     `yaml:"poll"`
	Logging  LoggingConfig  `yaml:"logging"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Status   StatusConfig   `yaml:"status"`
}

// ---- SENSOR ----

type SensorConfig struct {
	ID            string `yaml:"id"`
	DevicePath    string `yaml:"device_path"`
	BaudRate      int    `yaml:"baud_rate"` // protocol-locked to 9600
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

// ---- POLL ----

type PollConfig struct {
	CommandIntervalMs int           `yaml:"command_interval_ms"`
	ResponseTimeoutMs int           `yaml:"response_timeout_ms"` // 0 = wait forever
	VerifyChecksum    bool          `yaml:"verify_checksum"`
	Restart           RestartConfig `yaml:"restart"`
}

type RestartConfig struct {
	Enabled     bool `yaml:"enabled"`
	DelayMs     int  `yaml:"delay_ms"`
	MaxAttempts int  `yaml:"max_attempts"` // 0 = unlimited
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"` // empty disables the file sink
	NoColor bool   `yaml:"no_color"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ---- INFLUXDB ----

type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds
}

// ---- STATUS ----

type StatusConfig struct {
	Enabled bool `yaml:"enabled"` // retained status document, requires mqtt
}

// Load reads and parses a YAML config file.
// It does not validate or apply defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return &cfg, nil
}
