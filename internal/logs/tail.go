package logs

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sapsdispatch/internal/logging"
)

// ErrNoRunLog reports a log directory without any run files.
var ErrNoRunLog = errors.New("no run log found")

// TailOptions selects which lines Tail returns.
type TailOptions struct {
	// Limit is the number of trailing lines to keep. Zero keeps every line.
	Limit int
	// JobID keeps only records whose job_id matches.
	JobID string
}

// LatestRunLog returns the most recently modified non-empty run log in dir.
func LatestRunLog(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logging.RunLogPattern))
	if err != nil {
		return "", fmt.Errorf("list run logs: %w", err)
	}
	var (
		latest string
		newest int64
	)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Size() == 0 {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > newest || (mod == newest && path > latest) {
			latest, newest = path, mod
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoRunLog, dir)
	}
	return latest, nil
}

// Tail returns the last lines of path that satisfy opts. A missing file
// yields no lines.
func Tail(path string, opts TailOptions) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("log path %q is a directory", path)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		all   []string
		ring  []string
		count int
		idx   int
	)
	if opts.Limit > 0 {
		ring = make([]string, opts.Limit)
	}
	for scanner.Scan() {
		line := scanner.Text()
		if opts.JobID != "" && jobOf(line) != opts.JobID {
			continue
		}
		if ring == nil {
			all = append(all, line)
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % opts.Limit
		if count < opts.Limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	if ring == nil {
		return all, nil
	}

	lines := make([]string, count)
	if count == opts.Limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%opts.Limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

func jobOf(line string) string {
	var record struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return ""
	}
	return record.JobID
}
