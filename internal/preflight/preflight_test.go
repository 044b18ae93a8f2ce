package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sapsdispatch/internal/config"
	"sapsdispatch/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckExecutable(t *testing.T) {
	script := filepath.Join(t.TempDir(), "present")
	testsupport.WriteFile(t, script, "#!/bin/sh\nexit 0\n", 0o755)

	if result := CheckExecutable("script", script); !result.Passed || result.Detail != script {
		t.Fatalf("expected pass with resolved path, got %#v", result)
	}
	if result := CheckExecutable("script", "clearly-not-present-binary"); result.Passed || result.Detail == "" {
		t.Fatalf("expected failure for missing binary, got %#v", result)
	}
	if result := CheckExecutable("script", " "); result.Passed {
		t.Fatal("expected failure for empty command")
	}
}

func TestCheckTagCatalog(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "tags.toml")
	testsupport.WriteFile(t, good, testsupport.SampleTagCatalog, 0o644)
	result := CheckTagCatalog(good)
	if !result.Passed || !strings.Contains(result.Detail, "processing=1") {
		t.Fatalf("expected pass with counts, got %#v", result)
	}

	partial := filepath.Join(dir, "partial.toml")
	testsupport.WriteFile(t, partial, "[[processing]]\nname = \"v1\"\ndocker_repository = \"saps/worker\"\ndocker_tag = \"v1\"\n", 0o644)
	if result := CheckTagCatalog(partial); result.Passed {
		t.Fatalf("expected failure when phases are missing, got %#v", result)
	}

	if result := CheckTagCatalog(filepath.Join(dir, "missing.toml")); result.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestCheckDatasets(t *testing.T) {
	if result := CheckDatasets(config.Default().Datasets); !result.Passed {
		t.Fatalf("expected default datasets to pass, got %s", result.Detail)
	}
	if result := CheckDatasets(nil); result.Passed {
		t.Fatal("expected failure for empty dataset list")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_Ready(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTagCatalog(testsupport.SampleTagCatalog),
		testsupport.WithDigestScript(),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if Failed(results) {
		t.Fatal("expected no failures")
	}
}

func TestRunAll_ReportsMissingScript(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTagCatalog(testsupport.SampleTagCatalog))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if !Failed(results) {
		t.Fatal("expected a failure without a digest script")
	}
	for _, r := range results {
		if r.Name == "Digest script" && r.Passed {
			t.Fatalf("expected digest script check to fail: %#v", r)
		}
	}
}
