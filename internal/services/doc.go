// Package services defines shared utilities consumed by the dispatcher and its
// external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (retry vs fix the request) without string matching.
//
// Use these helpers when wiring new collaborators so error handling and
// observability stay uniform across a submission.
package services
