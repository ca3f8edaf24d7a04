package config

import (
	"context"
	"log/slog"

	"github.com/davidbalbert/chatline/sync"
)

// ConfigManager holds the running config. Services wait on it with
// AwaitChange and restart when it changes.
type ConfigManager struct {
	*sync.Notifier[*Config]
	path   string
	logger *slog.Logger
}

func NewConfigManager(path string, logger *slog.Logger) (*ConfigManager, error) {
	conf, err := Load(path)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	n := sync.NewNotifier[*Config]()
	n.NotifyChange(conf)

	return &ConfigManager{Notifier: n, path: path, logger: logger}, nil
}

// Run reloads the config file when it changes. A file that fails to load
// or validate is logged and the running config is kept.
func (c *ConfigManager) Run(ctx context.Context) error {
	if c.path == "" {
		<-ctx.Done()
		return nil
	}

	return WatchFile(ctx, c.path, c.logger, func() {
		if err := c.Reload(); err != nil {
			c.logger.Error("keeping running config", "path", c.path, "err", err)
		}
	})
}

func (c *ConfigManager) Reload() error {
	conf, err := Load(c.path)
	if err != nil {
		return err
	}

	c.NotifyChange(conf)
	c.logger.Info("config reloaded", "path", c.path)

	return nil
}

func (c *ConfigManager) UpdateConfig(conf *Config) error {
	err := conf.validate()
	if err != nil {
		return err
	}

	c.NotifyChange(conf)

	return nil
}

// GetConfig returns a copy of the running config.
func (c *ConfigManager) GetConfig() *Config {
	conf, _ := c.LastChange()
	return conf.copy()
}
