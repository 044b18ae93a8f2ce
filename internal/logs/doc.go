// Package logs reads back the per-run JSON logs written by
// logging.NewFromConfig.
//
// LatestRunLog finds the newest run file in the log directory and Tail returns
// its last lines with bounded memory, optionally narrowed to one job. The CLI
// `logs` command is built on these helpers.
package logs
