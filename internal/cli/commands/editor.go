package commands

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/cli/config"
	"github.com/creatorbridge/creatorbridge/internal/cli/ui"
	"github.com/creatorbridge/creatorbridge/internal/logging"
	"github.com/creatorbridge/creatorbridge/internal/sim"
	"github.com/creatorbridge/creatorbridge/internal/store"
)

// addStoreFlags registers the flags selecting the simulated editor's state
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", config.StoreMemory, "Simulated editor store: memory or redis")
	cmd.Flags().String("fixture", "", "Fixture file (.yaml or .json) seeding the simulated editor (default: built-in demo)")
	cmd.Flags().String("redis", "", "Redis address for the redis store")
}

// addLogFlags registers the logger flags
func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().Bool("dev", false, "Human-readable development logging")
}

// loadConfig reads configuration with the command's flags applied and builds
// the logger it selects.
func loadConfig(root *rootFlags, cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(root.configFile, cmd.Flags())
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), root.noColor))
		return nil, nil, &reportedError{err: err}
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openStore opens the configured backend of the simulated editor
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		s, err := store.NewRedisStoreWithConfig(store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Config:   store.Config{Prefix: cfg.Store.Redis.Prefix},
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Store.Redis.Addr, err)
		}
		return s, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

// newSimEditor builds a simulated editor over the configured store and seeds
// it from the configured fixture, or the demo project when none is set.
func newSimEditor(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sim.Editor, store.Store, error) {
	s, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	var fixture *sim.Fixture
	if cfg.Store.Fixture != "" {
		fixture, err = sim.LoadFixture(afero.NewOsFs(), cfg.Store.Fixture)
	} else {
		fixture, err = sim.DemoFixture()
	}
	if err != nil {
		s.Close()
		return nil, nil, err
	}

	editor := sim.New(sim.Config{Store: s, Logger: logger.Named("sim")})
	if err := editor.Seed(ctx, fixture); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("seed simulated editor: %w", err)
	}
	return editor, s, nil
}
