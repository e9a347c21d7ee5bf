package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"av1ify/internal/config"
	"av1ify/internal/history"
	"av1ify/internal/logging"
	"av1ify/internal/queue"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// withQueue opens the queue database for the duration of fn.
func (c *commandContext) withQueue(fn func(*queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg.QueueDBPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withHistory loads the history store for the duration of fn. The
// caller saves explicitly when it mutates records.
func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store := history.NewStore(cfg.HistoryPath(), logging.NewNop())
	if err := store.Load(); err != nil {
		return err
	}
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
