// Package internaldefs holds the exported metric names and help strings
// shared by the Prometheus and OpenTelemetry exporters, so both publish the
// same series for the same goAccount counter.
package internaldefs
