// Package telemetry groups the observability subpackages.
//
//   - logging: structured slog output with credential redaction and
//     request ID stamping
//   - metrics: Prometheus collector fed by failover events, plus the
//     /metrics handler
//   - tracing: OpenTelemetry OTLP export lifecycle
//   - health: liveness and readiness probes
//
// Each subpackage is configured from the matching section under
// telemetry in the configuration file and constructed independently;
// there is no umbrella telemetry object.
package telemetry
