// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultCommandIntervalMs = 5000
	DefaultReadTimeoutMs     = 200
	DefaultRestartDelayMs    = 5000
	DefaultLogLevel          = "info"

	DefaultMQTTPort        = 1883
	DefaultMQTTClientID    = "co2monitor"
	DefaultMQTTTopicPrefix = "co2monitor"

	DefaultInfluxBatchSize     = 100
	DefaultInfluxFlushInterval = 10
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Sensor.BaudRate == 0 {
		cfg.Sensor.BaudRate = RequiredBaudRate
	}
	if cfg.Sensor.ReadTimeoutMs == 0 {
		cfg.Sensor.ReadTimeoutMs = DefaultReadTimeoutMs
	}

	if cfg.Poll.CommandIntervalMs == 0 {
		cfg.Poll.CommandIntervalMs = DefaultCommandIntervalMs
	}
	if cfg.Poll.Restart.Enabled && cfg.Poll.Restart.DelayMs == 0 {
		cfg.Poll.Restart.DelayMs = DefaultRestartDelayMs
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}

	// Transport-side defaults only matter when the sink is used.
	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker.Port == 0 {
			cfg.MQTT.Broker.Port = DefaultMQTTPort
		}
		if cfg.MQTT.Broker.ClientID == "" {
			cfg.MQTT.Broker.ClientID = DefaultMQTTClientID + "-" + cfg.Sensor.ID
		}
		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = DefaultMQTTTopicPrefix
		}
	}

	if cfg.InfluxDB.Enabled {
		if cfg.InfluxDB.BatchSize == 0 {
			cfg.InfluxDB.BatchSize = DefaultInfluxBatchSize
		}
		if cfg.InfluxDB.FlushInterval == 0 {
			cfg.InfluxDB.FlushInterval = DefaultInfluxFlushInterval
		}
	}
}
