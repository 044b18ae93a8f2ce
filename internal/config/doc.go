// Package config loads, normalizes, and validates sapsdispatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SAPS_TAGS_FILE. The Config type centralizes every knob the dispatcher and CLI
// need: catalog location, worker pool sizing, digest resolution, availability
// circuit breaking, dataset operation windows, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
