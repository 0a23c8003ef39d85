// Package otel publishes goAccount counters as OpenTelemetry observable
// counters. The caller owns the MeterProvider; one callback reads the Engine
// snapshot per collection.
package otel
