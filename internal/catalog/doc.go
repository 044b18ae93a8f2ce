// Package catalog persists tasks, jobs, and known imagery for the dispatcher.
//
// Catalog is the narrow port the submission core writes through; Reader adds
// the reporting queries the CLI uses. SQLiteStore backs both with a
// modernc.org/sqlite database in WAL mode, retrying writes while the database
// is busy so a pool of workers can insert concurrently. Memory is a
// map-backed implementation for tests and dry runs. Every write is idempotent
// on its natural key, which makes resubmitting an identical job safe.
package catalog
