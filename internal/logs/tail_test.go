package logs_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sapsdispatch/internal/logs"
)

func writeLog(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sapsdispatch-20260101T000000.log")
	writeLog(t, path, "a", "b", "c")

	lines, err := logs.Tail(path, logs.TailOptions{Limit: 2})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}

	all, err := logs.Tail(path, logs.TailOptions{})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected every line, got %#v", all)
	}
}

func TestTailFiltersByJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sapsdispatch-20260101T000000.log")
	writeLog(t, path,
		`{"msg":"submission accepted","job_id":"job-a"}`,
		`{"msg":"submission accepted","job_id":"job-b"}`,
		`not json`,
		`{"msg":"submission complete","job_id":"job-a"}`,
	)

	lines, err := logs.Tail(path, logs.TailOptions{Limit: 5, JobID: "job-a"})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 2 || !strings.Contains(lines[1], "submission complete") {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	lines, err := logs.Tail(filepath.Join(t.TempDir(), "missing.log"), logs.TailOptions{Limit: 3})
	if err != nil || len(lines) != 0 {
		t.Fatalf("expected no lines and no error, got %#v %v", lines, err)
	}
}

func TestLatestRunLog(t *testing.T) {
	dir := t.TempDir()
	if _, err := logs.LatestRunLog(dir); !errors.Is(err, logs.ErrNoRunLog) {
		t.Fatalf("expected ErrNoRunLog, got %v", err)
	}

	older := filepath.Join(dir, "sapsdispatch-20260101T000000.log")
	newer := filepath.Join(dir, "sapsdispatch-20260102T000000.log")
	writeLog(t, older, "old")
	writeLog(t, newer, "new")
	writeLog(t, filepath.Join(dir, "other.log"), "ignored")
	if err := os.WriteFile(filepath.Join(dir, "sapsdispatch-20260103T000000.log"), nil, 0o644); err != nil {
		t.Fatalf("write empty log: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got, err := logs.LatestRunLog(dir)
	if err != nil {
		t.Fatalf("LatestRunLog: %v", err)
	}
	if got != newer {
		t.Fatalf("expected %s, got %s", newer, got)
	}
}
