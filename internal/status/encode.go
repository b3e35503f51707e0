// internal/status/encode.go
package status

import (
	"encoding/json"
	"time"
)

// document is the wire shape of a status message.
type document struct {
	SensorID       string  `json:"sensor_id"`
	Health         string  `json:"health"`
	HealthCode     uint16  `json:"health_code"`
	LastErrorCode  uint16  `json:"last_error_code"`
	SecondsInError uint16  `json:"seconds_in_error"`
	LastPPM        *uint16 `json:"last_ppm,omitempty"`
	LastReadAt     string  `json:"last_read_at,omitempty"`
}

// Encode converts a Snapshot into the status JSON document.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(sensorID string, s Snapshot) []byte {
	doc := document{
		SensorID:       sensorID,
		Health:         HealthName(s.Health),
		HealthCode:     s.Health,
		LastErrorCode:  s.LastErrorCode,
		SecondsInError: s.SecondsInError,
	}
	// 0 ppm is a real reading; presence follows LastReadAt.
	if !s.LastReadAt.IsZero() {
		ppm := s.LastPPM
		doc.LastPPM = &ppm
		doc.LastReadAt = s.LastReadAt.UTC().Format(time.RFC3339)
	}

	// document has only plain fields; Marshal cannot fail.
	b, _ := json.Marshal(doc)
	return b
}
