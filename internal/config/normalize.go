package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	if err := c.normalizeDigest(); err != nil {
		return err
	}
	c.normalizeDatasets()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		if value, ok := os.LookupEnv("SAPS_CATALOG_PATH"); ok {
			c.Catalog.Path = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Catalog.Path) == "" {
		c.Catalog.Path = filepath.Join(c.Paths.DataDir, defaultCatalogFile)
	}
	var err error
	if c.Catalog.Path, err = expandPath(strings.TrimSpace(c.Catalog.Path)); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeDigest() error {
	c.Digest.TagsFile = strings.TrimSpace(c.Digest.TagsFile)
	if c.Digest.TagsFile == "" {
		if value, ok := os.LookupEnv("SAPS_TAGS_FILE"); ok {
			c.Digest.TagsFile = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Digest.TagsFile, err = expandPath(c.Digest.TagsFile); err != nil {
		return fmt.Errorf("digest.tags_file: %w", err)
	}
	c.Digest.Script = strings.TrimSpace(c.Digest.Script)
	if value, ok := os.LookupEnv("SAPS_DIGEST_SCRIPT"); ok && strings.TrimSpace(value) != "" {
		c.Digest.Script = strings.TrimSpace(value)
	}
	if c.Digest.Script == "" {
		c.Digest.Script = defaultDigestScript
	}
	return nil
}

func (c *Config) normalizeDatasets() {
	for i := range c.Datasets {
		c.Datasets[i].Name = strings.ToLower(strings.TrimSpace(c.Datasets[i].Name))
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
