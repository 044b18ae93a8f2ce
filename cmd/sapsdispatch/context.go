package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sapsdispatch/internal/availability"
	"sapsdispatch/internal/catalog"
	"sapsdispatch/internal/config"
	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/dispatch"
	"sapsdispatch/internal/logging"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	store *catalog.SQLiteStore
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// loggerFor builds the run logger on first use. Each CLI invocation is one
// session.
func (c *commandContext) loggerFor(cfg *config.Config) *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(cfg, uuid.NewString())
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: "info", Format: "console", OutputPaths: []string{"stderr"}})
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openStore() (*catalog.SQLiteStore, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	c.store = store
	return store, nil
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

type dispatcherOptions struct {
	dryRun          bool
	assumeAvailable bool
}

// newDispatcher wires the catalog, digest resolver and oracle. A dry run
// writes to an in-memory catalog and uses image references as digests so
// neither the database nor the digest script is touched.
func (c *commandContext) newDispatcher(opts dispatcherOptions) (*dispatch.Dispatcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.loggerFor(cfg)

	tags, err := digest.LoadTagCatalog(cfg.Digest.TagsFile)
	if err != nil {
		return nil, fmt.Errorf("load execution tags: %w", err)
	}

	var (
		store    dispatch.Storage
		resolver digest.Resolver
	)
	if opts.dryRun {
		store = catalog.NewMemory()
		resolver = digest.StaticFromCatalog(tags)
	} else {
		sqlite, err := c.openStore()
		if err != nil {
			return nil, err
		}
		store = sqlite
		resolver, err = digest.NewScriptResolver(tags, cfg.Digest.Script, cfg.DigestTimeout(), digest.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("digest resolver: %w", err)
		}
	}

	dispatchOpts := []dispatch.Option{dispatch.WithLogger(logger)}
	if opts.assumeAvailable || opts.dryRun {
		dispatchOpts = append(dispatchOpts, dispatch.WithOracle(availability.Always))
	}
	return dispatch.New(cfg, store, resolver, dispatchOpts...)
}

// readDispatcher serves read-only commands, which never resolve digests.
func (c *commandContext) readDispatcher() (*dispatch.Dispatcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.openStore()
	if err != nil {
		return nil, err
	}
	return dispatch.New(cfg, store, digest.Static{}, dispatch.WithLogger(c.loggerFor(cfg)))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
