package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// pruneRunLogs deletes run logs in dir last modified more than retentionDays
// ago. A non-positive retention keeps every file.
func pruneRunLogs(logger *slog.Logger, dir string, retentionDays int) {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return
	}
	if logger == nil {
		logger = NewNop()
	}
	matches, err := filepath.Glob(filepath.Join(dir, RunLogPattern))
	if err != nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log prune failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				Hint("check permissions on paths.log_dir"),
				Impact("old run log stays on disk"),
			)
			continue
		}
		logger.Debug("run log pruned", String("path", path), String(FieldEventType, "log_pruned"))
	}
}
