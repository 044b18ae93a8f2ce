package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sapsdispatch/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// OutputPaths lists destinations: "stdout", "stderr", or file paths.
	// Duplicates are written once. Empty means stderr.
	OutputPaths []string
	// SessionID, when set, is stamped on every record.
	SessionID string
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))

	out, err := openOutputs(opts.OutputPaths)
	if err != nil {
		return nil, err
	}
	handler, err := newFormatHandler(opts.Format, out, levelVar, levelVar.Level() <= slog.LevelDebug)
	if err != nil {
		return nil, err
	}
	if id := strings.TrimSpace(opts.SessionID); id != "" {
		handler = withStamp(handler, slog.String(FieldSessionID, id))
	}
	return slog.New(handler), nil
}

func newFormatHandler(format string, w io.Writer, lvl *slog.LevelVar, addSource bool) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return newJSONHandler(w, lvl, addSource), nil
	case "console", "":
		return newPrettyHandler(w, lvl, addSource), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

// RunLogPattern matches the per-run JSON log files written by NewFromConfig.
const RunLogPattern = "sapsdispatch-*.log"

// NewFromConfig creates a logger using application config defaults. Terminal
// output goes to stderr in the configured format while a JSON copy of every
// record is appended to a per-run file inside the log directory. Run files
// older than logging.retention_days are pruned before the new one is opened.
func NewFromConfig(cfg *config.Config, sessionID string) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", OutputPaths: []string{"stderr"}, SessionID: sessionID})
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(cfg.Logging.Level))
	addSource := levelVar.Level() <= slog.LevelDebug

	terminal, err := newFormatHandler(cfg.Logging.Format, os.Stderr, levelVar, addSource)
	if err != nil {
		return nil, err
	}
	handlers := []slog.Handler{terminal}

	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		pruneRunLogs(slog.New(terminal), dir, cfg.Logging.RetentionDays)
		logPath := filepath.Join(dir, runLogName(time.Now(), sessionID))
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", logPath, err)
		}
		handlers = append(handlers, newJSONHandler(file, levelVar, addSource))
	}

	handler := TeeHandler(handlers...)
	if strings.TrimSpace(sessionID) != "" {
		handler = withStamp(handler, slog.String(FieldSessionID, strings.TrimSpace(sessionID)))
	}
	return slog.New(handler), nil
}

func runLogName(now time.Time, sessionID string) string {
	name := "sapsdispatch-" + now.UTC().Format("20060102T150405")
	if id := strings.TrimSpace(sessionID); id != "" {
		name += "-" + id
	}
	return name + ".log"
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openOutputs(paths []string) (io.Writer, error) {
	seen := make(map[string]struct{}, len(paths))
	var writers []io.Writer
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if _, dup := seen[path]; dup || path == "" {
			continue
		}
		seen[path] = struct{}{}
		switch path {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("ensure log directory: %w", err)
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", path, err)
			}
			writers = append(writers, file)
		}
	}
	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}
