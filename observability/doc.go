// Package observability provides an OpenTelemetry-based metrics
// extension for invoiceflow. The MetricsExtension implements lifecycle
// hooks to record system-wide counters for run starts, suspensions,
// resumes, completions, failures, and cancellations.
//
// For per-stage tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
