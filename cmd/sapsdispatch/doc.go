// Package main hosts the sapsdispatch CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, opens the SQLite catalog,
// and hands work to internal/dispatch: submitting jobs, listing jobs and their
// tasks, searching processed tasks, reporting region frequency, seeding image
// availability, and scaffolding configuration.
//
// Output is a rounded table on a terminal and tab-separated rows otherwise;
// --json switches every listing to indented JSON.
package main
