package testsupport

import (
	"path/filepath"
	"testing"

	"sapsdispatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Catalog.Path = filepath.Join(base, "data", "catalog.db")
	cfgVal.Digest.TagsFile = filepath.Join(base, "execution_tags.toml")
	cfgVal.Digest.Script = filepath.Join(base, "bin", "get_digest")
	cfgVal.Digest.TimeoutSeconds = 5
	cfgVal.Dispatch.Workers = 4
	cfgVal.Dispatch.QueueSize = 8

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers overrides the dispatch worker count and queue size.
func WithWorkers(workers, queueSize int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dispatch.Workers = workers
		b.cfg.Dispatch.QueueSize = queueSize
	}
}

// WithTagCatalog writes body as the execution tags file.
func WithTagCatalog(body string) ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Digest.TagsFile, body, 0o644)
	}
}

// WithDigestScript writes a shell script that prints a digest derived from
// its repository and tag arguments.
func WithDigestScript() ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Digest.Script, "#!/bin/sh\necho \"sha256:$1-$2\"\n", 0o755)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
