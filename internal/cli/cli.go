// Package cli implements the facetool command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"facial-editor/internal/catalog"
	"facial-editor/internal/config"
	"facial-editor/internal/logging"
	"facial-editor/internal/persist"
	"facial-editor/internal/session"
	"facial-editor/internal/transform"
	"facial-editor/internal/version"
)

// env is what every subcommand runs with: the loaded configuration and a
// logger. It is built once, before any command runs.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

type envKey struct{}

func envFromContext(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	return &env{cfg: config.Default(), logger: logging.FromContext(ctx), out: os.Stdout}
}

// NewRootCommand builds the facetool command tree. Output goes to out and
// logs to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	var (
		configFile string
		envFiles   []string
		logLevel   string
		verbose    bool
	)

	root := &cobra.Command{
		Use:          "facetool",
		Short:        "Place facial-feature stickers on photos",
		Long:         `facetool places catalog stickers (beards, hats, glasses, ...) on photos, renders saved scenes and serves the editing API.`,
		Version:      version.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.LoadOptions{File: configFile, EnvFiles: envFiles})
			if err != nil {
				return err
			}
			level := logging.ParseLevel(cfg.LogLevel)
			if cmd.Flags().Changed("log-level") {
				level = logging.ParseLevel(logLevel)
			}
			if verbose {
				level = logging.LevelDebug
			}
			logger := logging.NewLogger(errOut, level)

			ctx := logging.WithLogger(cmd.Context(), logger)
			ctx = context.WithValue(ctx, envKey{}, &env{cfg: cfg, logger: logger, out: out})
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(versionText())

	flags := root.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default "+config.DefaultFile+" if present)")
	flags.StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newPlaceCmd())
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs facetool with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func versionText() string {
	return fmt.Sprintf("facetool %s\ncommit: %s\nbuilt: %s\n", version.Version, version.GitCommit, version.BuildTime)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), versionText())
		},
	}
}

// loadCatalog builds the shared catalog from the configured sources. The
// directory catalog is layered over the built-in one, replacing stickers
// with the same name.
func loadCatalog(cfg *config.Config, logger *slog.Logger) (*catalog.Store, error) {
	store := catalog.NewStore()
	if cfg.Catalog.Builtin {
		builtin, err := catalog.Builtin()
		if err != nil {
			return nil, fmt.Errorf("built-in catalog: %w", err)
		}
		store.Merge(builtin)
	}
	if cfg.Catalog.Dir != "" {
		dir, err := catalog.LoadDir(cfg.Catalog.Dir)
		if err != nil {
			return nil, err
		}
		store.Merge(dir)
	}
	logger.Debug("catalog loaded", "features", store.Len(), "categories", len(store.Categories()))
	return store, nil
}

func newSink(cfg *config.Config) (*persist.FileSink, error) {
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return nil, err
	}
	return &persist.FileSink{JPEGQuality: cfg.Output.JPEGQuality, Background: bg}, nil
}

// ControllerOptions assembles everything a session needs from cfg. The
// desktop editor uses it too.
func ControllerOptions(cfg *config.Config, logger *slog.Logger) (session.Options, error) {
	store, err := loadCatalog(cfg, logger)
	if err != nil {
		return session.Options{}, err
	}
	engine, err := transform.New(cfg.Transform.Backend)
	if err != nil {
		return session.Options{}, err
	}
	sink, err := newSink(cfg)
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Catalog: store,
		Engine:  engine,
		Sink:    sink,
		Bounds: transform.Bounds{
			ScaleMin: cfg.Params.ScaleMin,
			ScaleMax: cfg.Params.ScaleMax,
		},
		Logger: logger,
	}, nil
}
