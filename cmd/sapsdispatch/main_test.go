package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sapsdispatch/internal/config"
	"sapsdispatch/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	for _, key := range []string{"SAPS_TAGS_FILE", "SAPS_DIGEST_SCRIPT", "SAPS_CATALOG_PATH"} {
		t.Setenv(key, "")
	}
	cfg := testsupport.NewConfig(t,
		testsupport.WithTagCatalog(testsupport.SampleTagCatalog),
		testsupport.WithDigestScript(),
	)
	t.Setenv("HOME", filepath.Join(testsupport.BaseDir(cfg), "home"))

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("%s: %v (stderr: %s)", strings.Join(args, " "), err, stderr)
	}
	return out
}

func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

// submitArgs targets a single WRS-2 cell, 215065, over three days of 1990.
func submitArgs(extra ...string) []string {
	args := []string{
		"submit",
		"--lower-left-lat", "-7.3", "--lower-left-lon", "-35.3",
		"--upper-right-lat", "-7.2", "--upper-right-lon", "-35.2",
		"--init", "1990-06-01", "--end", "1990-06-03",
		"--inputdownloading-tag", "v1", "--preprocessing-tag", "v1", "--processing-tag", "v1",
		"--priority", "4", "--owner", "alice@example.org",
	}
	return append(args, extra...)
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRun(t, env, "config", "validate")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "processing tags: 1")

	target := filepath.Join(t.TempDir(), "config.toml")
	out = mustRun(t, env, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestRegionsExpand(t *testing.T) {
	out, _, err := runCLI(t, []string{
		"--json", "regions", "expand",
		"--lower-left-lat", "-7.3", "--lower-left-lon", "-35.3",
		"--upper-right-lat", "-7.2", "--upper-right-lon", "-35.2",
	}, "")
	if err != nil {
		t.Fatalf("regions expand: %v", err)
	}
	var regions []string
	decodeJSON(t, out, &regions)
	if len(regions) != 1 || regions[0] != "215065" {
		t.Fatalf("expected [215065], got %v", regions)
	}
}

func TestSubmitAndReport(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRun(t, env, "images", "add", "215065", "1990-06-01", "landsat_5")
	mustRun(t, env, "images", "add", "215065", "1990-06-02", "landsat_5")
	requireContains(t, mustRun(t, env, "images", "check", "215065", "1990-06-03"), "no")

	var submitted submitView
	decodeJSON(t, mustRun(t, env, append([]string{"--json"}, submitArgs()...)...), &submitted)
	if !submitted.Complete || submitted.Accepted != 2 || submitted.Skipped != 1 {
		t.Fatalf("unexpected submission: %#v", submitted)
	}
	if submitted.Label != "alice-1990-1990" {
		t.Fatalf("expected derived label, got %q", submitted.Label)
	}
	requireContains(t, mustRun(t, env, "logs", "--job", submitted.JobID), "submission complete")

	var task taskView
	decodeJSON(t, mustRun(t, env, "--json", "tasks", "show", submitted.TaskIDs[0]), &task)
	if task.Processing.Digest != "sha256:saps/worker-v1" || task.Dataset != "landsat_5" {
		t.Fatalf("unexpected task: %#v", task)
	}

	var listing struct {
		Total int       `json:"total"`
		Jobs  []jobView `json:"jobs"`
	}
	decodeJSON(t, mustRun(t, env, "--json", "jobs", "list", "--owner", "alice@example.org"), &listing)
	if listing.Total != 1 || len(listing.Jobs[0].TaskIDs) != 2 || listing.Jobs[0].ID != submitted.JobID {
		t.Fatalf("unexpected jobs listing: %#v", listing)
	}

	tsv := mustRun(t, env, "jobs", "tasks", submitted.JobID)
	if lines := strings.Count(tsv, "\n"); lines != 3 {
		t.Fatalf("expected header plus 2 task lines, got:\n%s", tsv)
	}

	requireContains(t, mustRun(t, env, "tasks", "set-state", submitted.TaskIDs[0], "archived"), "archived")

	var processed []taskView
	decodeJSON(t, mustRun(t, env, "--json", "processed",
		"--lower-left-lat", "-7.3", "--lower-left-lon", "-35.3",
		"--upper-right-lat", "-7.2", "--upper-right-lon", "-35.2",
		"--init", "1990-01-01", "--end", "1990-12-31",
		"--inputdownloading-tag", "v1", "--preprocessing-tag", "v1", "--processing-tag", "v1",
	), &processed)
	if len(processed) != 1 || processed[0].TaskID != submitted.TaskIDs[0] {
		t.Fatalf("unexpected processed tasks: %#v", processed)
	}

	var frequency map[string]int
	decodeJSON(t, mustRun(t, env, "--json", "regions", "frequency"), &frequency)
	if frequency["215065"] != 1 {
		t.Fatalf("unexpected frequency: %v", frequency)
	}

	var again submitView
	decodeJSON(t, mustRun(t, env, append([]string{"--json"}, submitArgs()...)...), &again)
	if again.JobID != submitted.JobID || strings.Join(again.TaskIDs, ",") != strings.Join(submitted.TaskIDs, ",") {
		t.Fatalf("resubmission changed ids: %#v", again)
	}
}

func TestSubmitDryRunLeavesCatalogEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	var submitted submitView
	decodeJSON(t, mustRun(t, env, append([]string{"--json"}, submitArgs("--dry-run")...)...), &submitted)
	if submitted.Accepted != 3 {
		t.Fatalf("expected 3 tasks in a dry run, got %d", submitted.Accepted)
	}
	requireContains(t, mustRun(t, env, "tasks", "list"), "No tasks found")
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, submitArgs("--priority", "40"), env.configPath)
	if err == nil || !strings.Contains(err.Error(), "priority") {
		t.Fatalf("expected priority validation error, got %v", err)
	}
}

func TestTasksSetStateRejectsUnknownState(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"tasks", "set-state", "x", "exploded"}, env.configPath); err == nil {
		t.Fatal("expected unknown state to be rejected")
	}
}

func TestDoctor(t *testing.T) {
	env := setupCLITestEnv(t)

	var checks []checkView
	decodeJSON(t, mustRun(t, env, "--json", "doctor"), &checks)
	if len(checks) == 0 {
		t.Fatal("expected readiness checks")
	}
	for _, c := range checks {
		if !c.Passed {
			t.Fatalf("check %q failed: %s", c.Name, c.Detail)
		}
	}
}
