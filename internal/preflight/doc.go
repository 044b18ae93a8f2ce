// Package preflight provides readiness checks for the paths, files, and
// helper programs a submission depends on.
//
// The CLI "doctor" command runs RunAll and prints one row per check. A
// failing check names the path or program at fault so the operator can fix
// the configuration before submitting work that would stop mid-run.
package preflight
