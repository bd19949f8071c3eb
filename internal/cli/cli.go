package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/foodweb/pkg/buildinfo"
	"github.com/matzehuels/foodweb/pkg/cache"
	"github.com/matzehuels/foodweb/pkg/config"
	"github.com/matzehuels/foodweb/pkg/observability"
	"github.com/matzehuels/foodweb/pkg/pipeline"
	"github.com/matzehuels/foodweb/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "foodweb"

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

	// ConfigPath is the --config flag. Empty means the default path, which
	// may be absent.
	ConfigPath string

	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), stdout: os.Stdout, stderr: w}
}

// SetLogLevel updates the logger's level. At debug level engine, pipeline,
// cache and HTTP events are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		observability.Register(observability.NewLogHooks(c.Logger))
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "foodweb lays out and analyzes species interaction networks",
		Long: `foodweb computes stress layouts, trophic levels, the longest feeding
cycle and connected components of directed food webs, renders them with
Graphviz, and serves live editing sessions over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default ~/.config/foodweb/config.toml)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	var (
		cfg config.Config
		err error
	)
	if c.ConfigPath != "" {
		cfg, err = config.Load(c.ConfigPath)
	} else {
		cfg, err = config.LoadDefault(config.DefaultPath())
	}
	if err != nil {
		return config.Config{}, err
	}
	c.cfg = &cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	cc, err := c.newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache.Observe(cc), nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheLRU:
		return cache.NewLRUCache(cfg.Size)
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, appName+":")
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, nil
	}

	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			c.Logger.Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/foodweb/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the web store directory using XDG standard
// (~/.local/share/foodweb/webs/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "webs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "webs"), nil
}

// basePath strips a known output extension, or the input's extension when
// output is empty.
func basePath(output, input string) string {
	if output == "" {
		if strings.Contains(input, "://") {
			input = filepath.Base(input)
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// =============================================================================
// Options Helpers
// =============================================================================

// baseOptions seeds pipeline options from the config file.
func (c *CLI) baseOptions() (pipeline.Options, error) {
	cfg, err := c.config()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.FromConfig(cfg)
	opts.Logger = c.Logger
	return opts, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{render.FormatSVG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, strings.ToLower(f))
		}
	}
	return formats
}

// analysisFlags are the solver flags shared by analyze, layout, render and
// explore. Zero values keep the configured value.
type analysisFlags struct {
	seed    uint64
	epochs  int
	refresh bool
	noCache bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "layout seed (default from config)")
	cmd.Flags().IntVar(&f.epochs, "epochs", 0, "SGD epochs (default from config)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even if cached")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

func (f *analysisFlags) apply(opts *pipeline.Options) {
	if f.seed != 0 {
		opts.Seed = f.seed
	}
	if f.epochs != 0 {
		opts.Epochs = f.epochs
	}
	opts.Refresh = f.refresh
}
