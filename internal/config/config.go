package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Catalog contains configuration for the SQLite task catalog.
type Catalog struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

// Dispatch contains configuration for the task expansion pipeline.
type Dispatch struct {
	// Workers is the number of goroutines persisting tasks per submission.
	Workers int `toml:"workers"`
	// QueueSize bounds the channel between the producer and the workers.
	QueueSize int `toml:"queue_size"`
	// SubmissionTimeout caps one submission in seconds. Zero disables the cap.
	SubmissionTimeout int `toml:"submission_timeout"`
}

// Digest contains configuration for resolving phase tags to image digests.
type Digest struct {
	TagsFile       string `toml:"tags_file"`
	Script         string `toml:"script"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Availability contains configuration for the imagery availability oracle.
type Availability struct {
	BreakerEnabled     bool `toml:"breaker_enabled"`
	BreakerMaxFailures int  `toml:"breaker_max_failures"`
	BreakerOpenSeconds int  `toml:"breaker_open_seconds"`
}

// Dataset describes the operational window of one sensor dataset. A missing
// end year means the dataset is still active.
type Dataset struct {
	Name      string `toml:"name"`
	StartYear int    `toml:"start_year"`
	EndYear   *int   `toml:"end_year"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for sapsdispatch.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Catalog: SQLite catalog location and busy timeout
//   - Dispatch: worker pool and queue sizing, submission timeout
//   - Digest: execution tags file and digest resolution script
//   - Availability: circuit breaker around the availability oracle
//   - Datasets: sensor dataset operation windows
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Catalog      Catalog      `toml:"catalog"`
	Dispatch     Dispatch     `toml:"dispatch"`
	Digest       Digest       `toml:"digest"`
	Availability Availability `toml:"availability"`
	Datasets     []Dataset    `toml:"datasets"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// A file that declares [[datasets]] replaces the defaults wholesale.
		cfg.Datasets = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if len(cfg.Datasets) == 0 {
			cfg.Datasets = defaultDatasets()
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sapsdispatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories plus the catalog's parent.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Catalog.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.Catalog.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SubmissionTimeout returns the per-submission deadline, or zero when unbounded.
func (c *Config) SubmissionTimeout() time.Duration {
	if c.Dispatch.SubmissionTimeout <= 0 {
		return 0
	}
	return time.Duration(c.Dispatch.SubmissionTimeout) * time.Second
}

// DigestTimeout returns the per-call timeout for the digest script.
func (c *Config) DigestTimeout() time.Duration {
	return time.Duration(c.Digest.TimeoutSeconds) * time.Second
}

// BreakerOpenTimeout returns how long the availability breaker stays open.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.Availability.BreakerOpenSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
