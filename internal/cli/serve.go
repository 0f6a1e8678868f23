package cli

import (
	"context"

	"github.com/spf13/cobra"

	"facial-editor/internal/config"
	"facial-editor/internal/server"
	"facial-editor/internal/session"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editing API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := envFromContext(ctx)
			cfg := e.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			opts, err := ControllerOptions(cfg, e.logger)
			if err != nil {
				return err
			}
			store, closeStore, err := openSessionStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			registry := session.NewRegistry(opts, store, cfg.Server.SessionTTL)
			encoder, err := newSink(cfg)
			if err != nil {
				return err
			}
			srv := server.New(registry, opts.Catalog, encoder, e.logger, server.Options{
				Addr:           cfg.Server.Addr,
				ReadTimeout:    cfg.Server.ReadTimeout,
				WriteTimeout:   cfg.Server.WriteTimeout,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// openSessionStore picks Redis when configured, then a session directory,
// then process memory.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	logger := envFromContext(ctx).logger
	switch {
	case cfg.Redis.Addr != "":
		s, err := session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session store", "backend", "redis", "addr", cfg.Redis.Addr)
		return s, func() { s.Close() }, nil
	case cfg.Server.SessionDir != "":
		s, err := session.NewFileStore(cfg.Server.SessionDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session store", "backend", "file", "dir", s.Path())
		return s, func() {}, nil
	default:
		logger.Info("session store", "backend", "memory")
		return session.NewMemoryStore(), func() {}, nil
	}
}
