// internal/status/constants.go
package status

// Sensor status constants.
// These values are published verbatim and MUST NOT be configurable.

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before any reading or error.
const HealthUnknown uint16 = 0

// HealthOK represents a sensor delivering readings.
const HealthOK uint16 = 1

// HealthError represents a sensor whose last cycle failed.
const HealthError uint16 = 2

// HealthStopped represents a sensor whose poll loop has been shut down.
const HealthStopped uint16 = 3

// ---- ERROR CODES ----

// ErrorCodeNone means no error.
const ErrorCodeNone uint16 = 0

// ErrorCodeGeneric is used for errors outside the poller taxonomy.
const ErrorCodeGeneric uint16 = 1

// ErrorCodeTransportOpen: device missing or unavailable.
const ErrorCodeTransportOpen uint16 = 10

// ErrorCodeTransportIO: write or read failure mid-run.
const ErrorCodeTransportIO uint16 = 11

// ErrorCodeProtocol: frame failed validation.
const ErrorCodeProtocol uint16 = 12

// ---- LIMITS ----

// MaxSecondsInError is where the seconds counter saturates.
const MaxSecondsInError uint16 = 65535
