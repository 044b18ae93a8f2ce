// Package logging assembles structured slog loggers and formatting helpers used
// across sapsdispatch.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so dispatch code can tag log
// lines with job IDs, stages, and correlation IDs. Run logs are teed to a
// JSON file under the log directory and pruned by age. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
