package mqtt

import "strings"

// Topics builds the topic tree for one sensor:
//
//	<prefix>/<sensor>/co2     readings
//	<prefix>/<sensor>/error   error events
//	<prefix>/<sensor>/status  retained status document, also the LWT topic
type Topics struct {
	Prefix   string
	SensorID string
}

func (t Topics) base() string {
	return strings.TrimSuffix(t.Prefix, "/") + "/" + t.SensorID
}

// Reading is the topic for CO2 readings.
func (t Topics) Reading() string { return t.base() + "/co2" }

// Error is the topic for error events.
func (t Topics) Error() string { return t.base() + "/error" }

// Status is the retained status topic.
func (t Topics) Status() string { return t.base() + "/status" }
