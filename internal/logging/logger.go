// Package logging builds the process logger.
//
// Output goes to a colored console writer on stdout and, when a file is
// configured, to plain "<unix-ms> <level>: <message>" lines appended to it.
// File lines drop the context fields (service, version, sensor, component);
// per-event fields such as error still follow the message.
// The logger is passed to components explicitly; there is no global.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/co2-monitor/internal/config"
)

// New creates a logger from config. The returned closer releases the log file.
func New(cfg config.LoggingConfig, version string) (zerolog.Logger, func() error, error) {
	return build(cfg, version, os.Stdout)
}

func build(cfg config.LoggingConfig, version string, console io.Writer) (zerolog.Logger, func() error, error) {
	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        console,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
		},
	}

	closer := func() error { return nil }

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("logging: open %s: %w", cfg.File, err)
		}
		writers = append(writers, fileWriter(f))
		closer = f.Close
	}

	level, _ := ParseLevel(cfg.Level)

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("service", "co2monitor").
		Str("version", version).
		Logger()

	return logger, closer, nil
}

// contextFields are attached to every event and kept out of the log file.
var contextFields = []string{"service", "version", "sensor", "component"}

// fileWriter renders plain lines, one per event.
func fileWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           w,
		NoColor:       true,
		PartsOrder:    []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		PartsExclude:  []string{zerolog.CallerFieldName},
		FieldsExclude: contextFields,
		FormatTimestamp: func(i any) string {
			if s, ok := i.(string); ok {
				if ts, err := time.Parse(zerolog.TimeFieldFormat, s); err == nil {
					return fmt.Sprintf("%d", ts.UnixMilli())
				}
				return s
			}
			return fmt.Sprint(i)
		},
		FormatLevel: func(i any) string {
			if s, ok := i.(string); ok {
				return s + ":"
			}
			return ""
		},
	}
}

// ParseLevel converts a config level to a zerolog level.
// Unknown or empty values fall back to info and report false.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
