// Package tracing installs the OpenTelemetry tracer provider and propagator
// used by the gRPC and HTTP instrumentation of the recall binaries.
//
// Tracing is opt-in: without a collector endpoint nothing is installed and the
// instrumentation stays on the global no-op provider.
package tracing
