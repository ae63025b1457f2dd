// Package cli implements the houndview command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/houndview/pkg/bloodhound"
	"github.com/matzehuels/houndview/pkg/buildinfo"
	"github.com/matzehuels/houndview/pkg/cache"
	"github.com/matzehuels/houndview/pkg/config"
	"github.com/matzehuels/houndview/pkg/errors"
	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/graphdb"
	"github.com/matzehuels/houndview/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "houndview"

	// cacheNamespace scopes explore results in shared cache backends.
	cacheNamespace = "explore"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config *config.Loaded

	cfgFile     string
	noCache     bool
	sessionName string

	// newTransport is replaced in tests.
	newTransport func(cfg config.Config) (explore.Transport, error)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{Logger: newLogger(w, level)}
	c.newTransport = c.apiClient
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Houndview runs BloodHound explore searches from the terminal",
		Long:         `Houndview drives the BloodHound explore page from the command line: node, pathfinding, cypher and relationship searches, edge filters, and graph export.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(c.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			c.Config = loaded
			if loaded.File != "" {
				c.Logger.Debug("config loaded", "file", loaded.File)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.String("api-url", "", "BloodHound API base URL")
	pf.String("api-token", "", "session token sent as a bearer token")
	pf.String("api-token-id", "", "API token id for signed requests")
	pf.String("api-token-key", "", "API token key for signed requests")
	pf.String("cache-backend", "", "result cache: file, redis or none")
	pf.BoolVar(&c.noCache, "no-cache", false, "bypass the result cache")
	pf.StringVar(&c.sessionName, "session", "", "navigation history to use (default \"default\")")

	root.AddCommand(c.searchCommand())
	root.AddCommand(c.urlCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.backCommand())
	root.AddCommand(c.filterCommand())
	root.AddCommand(c.itemCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// cfg returns the loaded configuration, or the defaults before loading.
func (c *CLI) cfg() config.Config {
	if c.Config == nil {
		return config.Default()
	}
	return c.Config.Config
}

// =============================================================================
// Factories
// =============================================================================

// apiClient builds the BloodHound client from cfg.
func (c *CLI) apiClient(cfg config.Config) (explore.Transport, error) {
	return c.bloodhoundClient(cfg)
}

func (c *CLI) bloodhoundClient(cfg config.Config) (*bloodhound.Client, error) {
	if !cfg.HasAPI() {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no API URL configured; set api.url or --api-url")
	}
	return bloodhound.New(bloodhound.Options{
		BaseURL:   cfg.API.URL,
		Token:     cfg.API.Token,
		TokenID:   cfg.API.TokenID,
		TokenKey:  cfg.API.TokenKey,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		UserAgent: buildinfo.UserAgent(appName),
	})
}

// newCache opens the configured result cache.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	default:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, continuing without", "dir", cfg.Cache.Dir, "err", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

// keyer scopes cache keys to the API instance so two servers sharing a
// cache never see each other's results.
func keyer(cfg config.Config) cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cacheNamespace+":"+cfg.API.URL)
}

// newExecutor wires a transport and cache into an executor. The returned
// close func releases the cache.
func (c *CLI) newExecutor(ctx context.Context) (*explore.Executor, func(), error) {
	cfg := c.cfg()
	t, err := c.newTransport(cfg)
	if err != nil {
		return nil, nil, err
	}
	rc, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	e := explore.NewExecutor(t, rc, keyer(cfg), c.Logger)
	e.TTL = cfg.Cache.TTL
	return e, func() { _ = rc.Close() }, nil
}

// openGraphDB connects to the configured graph database.
func (c *CLI) openGraphDB(ctx context.Context) (*graphdb.Fetcher, error) {
	cfg := c.cfg()
	if cfg.Neo4j.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no graph database configured; set neo4j.uri")
	}
	return graphdb.Open(ctx, graphdb.Options{
		URI:      cfg.Neo4j.URI,
		User:     cfg.Neo4j.User,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	})
}

// sessions opens the navigation history selected by --session.
func (c *CLI) sessions() (*session.CLIStore, error) {
	return session.NewCLIStore(c.sessionName)
}
