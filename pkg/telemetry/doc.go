// Package telemetry provides logging, metrics and tracing for autokernel.
//
// # Logging
//
// Logger wraps zerolog with component child loggers. Library packages take a
// zerolog.Logger; commands build one Logger at startup and hand out
// component children:
//
//	logger, _ := telemetry.NewLogger(cfg.Logging)
//	applier := engine.NewApplier(oracle, logger.Component("engine").Zerolog())
//
// # Metrics
//
// Metrics is a Prometheus registry covering run outcomes, symbol changes,
// conflicts, rejected values and hardware match results. Disabled metrics
// collapse to no-ops so callers never branch.
//
// # Tracing
//
// Tracer wraps the OpenTelemetry SDK with one span per run and one per
// phase (load, build, apply, render, detect). The stdout exporter is the
// only wired exporter; "none" keeps span generation without export.
package telemetry
