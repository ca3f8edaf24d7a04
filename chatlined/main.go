package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/davidbalbert/chatline/api"
	"github.com/davidbalbert/chatline/catalog"
	"github.com/davidbalbert/chatline/chat"
	"github.com/davidbalbert/chatline/chatlined/services"
	"github.com/davidbalbert/chatline/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:          "chatlined",
		Short:        "Chat command daemon",
		Long:         "chatlined parses and completes chat commands, tracks recently seen players and spots item names in chat. Clients talk to it over gRPC.",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, verbose)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to chatlined.yaml (defaults are used if empty)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level regardless of config")

	return cmd
}

func run(ctx context.Context, configPath string, verbose bool) error {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	configManager, err := config.NewConfigManager(configPath, logger)
	if err != nil {
		return err
	}

	setLevel := func(conf *config.Config) {
		if verbose {
			level.Set(slog.LevelDebug)
		} else {
			level.Set(conf.LogLevel)
		}
	}
	setLevel(configManager.GetConfig())

	logger.Info("starting chatlined", "version", version, "uid", os.Getuid())

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The catalog outlives service restarts so a config reload doesn't
	// leave the engine with an empty index while the watcher starts up.
	store := catalog.NewStore(nil)

	registry := services.NewRegistry()

	registry.MustRegister(config.ServiceTypeCatalogWatcher, func(running services.Services, conf *config.Config) (services.Runner, error) {
		return catalog.NewWatcher(store, conf.Catalog, logger.With("service", config.ServiceCatalogWatcher.Name)), nil
	})

	registry.MustRegister(config.ServiceTypeEngine, func(running services.Services, conf *config.Config) (services.Runner, error) {
		return chat.NewEngine(chat.OptionsFromConfig(conf, store, logger.With("service", config.ServiceEngine.Name)))
	})

	registry.MustRegister(config.ServiceTypeAPIServer, func(running services.Services, conf *config.Config) (services.Runner, error) {
		r, ok := running.Get(config.ServiceEngine)
		if !ok {
			return nil, fmt.Errorf("%s is not running", config.ServiceEngine)
		}

		engine, ok := r.(*chat.Engine)
		if !ok {
			return nil, fmt.Errorf("%s has unexpected type %T", config.ServiceEngine, r)
		}

		return api.NewServer(engine, conf, cancel, version, logger.With("service", config.ServiceAPIServer.Name))
	})

	serviceManager := services.NewServiceManager(configManager, registry, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return configManager.Run(ctx)
	})

	g.Go(func() error {
		return serviceManager.Run(ctx)
	})

	g.Go(func() error {
		_, seq := configManager.LastChange()
		for {
			conf, next := configManager.AwaitChange(ctx, seq)
			if ctx.Err() != nil {
				return nil
			}

			setLevel(conf)
			seq = next
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("exiting", "err", err)
		return err
	}

	return nil
}
