package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/foodweb/pkg/api"
	"github.com/matzehuels/foodweb/pkg/config"
	"github.com/matzehuels/foodweb/pkg/session"
	"github.com/matzehuels/foodweb/pkg/store"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		storeKind string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored webs and live editing sessions over HTTP",
		Long: `Start the HTTP API. Webs are kept in the configured store (memory, file or
mongo); analyses and renders go through the configured cache. Live sessions
expire after server.session_ttl of inactivity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, storeKind, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	cmd.Flags().StringVar(&storeKind, "store", "", "store backend: memory, file, mongo (default: server.store)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, storeKind string, noCache bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if storeKind != "" {
		cfg.Server.Store = storeKind
	}

	st, err := c.newStore(ctx, cfg.Server)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	defaults, err := c.baseOptions()
	if err != nil {
		return err
	}
	srv, err := api.New(api.Config{
		Store:    st,
		Runner:   runner,
		Sessions: session.NewManager(cfg.Server.SessionTTL.Duration, cfg.EngineOptions()),
		Defaults: defaults,
		Logger:   c.Logger,
	})
	if err != nil {
		return err
	}

	printInfo("Listening on %s (store: %s, cache: %s)", cfg.Server.Addr, cfg.Server.Store, cfg.Cache.Backend)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func (c *CLI) newStore(ctx context.Context, cfg config.Server) (store.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreMongo:
		ms, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		})
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return ms, nil
	case config.StoreFile:
		dir := cfg.DataDir
		if dir == "" {
			var err error
			if dir, err = dataDir(); err != nil {
				return nil, fmt.Errorf("get data dir: %w", err)
			}
		}
		return store.NewFileStore(dir)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
}
