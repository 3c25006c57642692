// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/elements-sync/internal/elements"
	"github.com/pdiddy/elements-sync/internal/outbound"
	"github.com/pdiddy/elements-sync/internal/reconcile"
	"github.com/pdiddy/elements-sync/internal/registry"
	"github.com/pdiddy/elements-sync/internal/secrets"
	"github.com/pdiddy/elements-sync/internal/store"
	"github.com/pdiddy/elements-sync/pkg/types"
)

func init() {
	viper.SetDefault("registry.endpoint", "")
	viper.SetDefault("registry.username", "")
	viper.SetDefault("registry.password", "")
	viper.SetDefault("registry.proxy", "")
	viper.SetDefault("registry.timeout", registry.DefaultTimeout)
	viper.SetDefault("registry.max_attempts", registry.DefaultMaxAttempts)
	viper.SetDefault("registry.backoff_base", "1s")
	viper.SetDefault("registry.rate_limit", 5.0)
	viper.SetDefault("registry.rate_burst", 1)
	viper.SetDefault("registry.max_pages", registry.DefaultMaxPages)
	viper.SetDefault("registry.user_agent", registry.DefaultUserAgent)

	viper.SetDefault("store.path", store.DefaultPath)

	viper.SetDefault("import.concurrency", reconcile.DefaultConcurrency)
	viper.SetDefault("import.min_year", elements.DefaultMinYear)
	viper.SetDefault("import.author_salt", "")

	viper.SetDefault("outbound.max_retries", outbound.DefaultMaxRetries)
	viper.SetDefault("outbound.backoff_base", "2s")
	viper.SetDefault("outbound.concurrency", 4)
}

// bindConfigFlags registers the persistent flags that override config keys.
func bindConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("endpoint", "", "registry API base URL")
	flags.String("proxy", "", "proxy URL for registry calls")
	flags.String("db", "", "path to the SQLite database")

	viper.BindPFlag("registry.endpoint", flags.Lookup("endpoint"))
	viper.BindPFlag("registry.proxy", flags.Lookup("proxy"))
	viper.BindPFlag("store.path", flags.Lookup("db"))
}

// loadConfig resolves the full configuration from defaults, config file,
// environment, flags, and secret files, in rising precedence except that
// secret files only fill blanks.
func loadConfig() (types.SyncConfig, error) {
	var cfg types.SyncConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg, nil
}

func newRegistryClient(cfg types.SyncConfig) (*registry.Client, error) {
	if cfg.Registry.Endpoint == "" {
		return nil, fmt.Errorf("registry endpoint not configured: set registry.endpoint, ELEMENTS_SYNC_REGISTRY_ENDPOINT, or --endpoint")
	}
	if cfg.Registry.Username == "" || cfg.Registry.Password == "" {
		slog.Warn("registry credentials are incomplete; requests will likely be rejected")
	}
	return registry.NewClient(cfg.Registry, registry.WithLogger(slog.Default()))
}

// syncEnv bundles the collaborators most commands need.
type syncEnv struct {
	cfg    types.SyncConfig
	client *registry.Client
	store  *store.Store
}

func openEnv() (*syncEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	client, err := newRegistryClient(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	return &syncEnv{cfg: cfg, client: client, store: st}, nil
}

func (e *syncEnv) Close() error {
	return e.store.Close()
}

func (e *syncEnv) updater() *outbound.Updater {
	return outbound.NewUpdater(e.client, e.store, e.cfg.Outbound, outbound.WithLogger(slog.Default()))
}
