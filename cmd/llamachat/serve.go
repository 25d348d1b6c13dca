package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llamachat/internal/config"
	"llamachat/internal/coordinator"
	"llamachat/internal/httpapi"
)

// logPublisher writes coordinator events to the process logger.
type logPublisher struct{ log zerolog.Logger }

func (p logPublisher) Publish(e coordinator.Event) {
	ev := p.log.Debug()
	if e.Err != nil {
		ev = p.log.Warn().Err(e.Err)
	}
	ev.Str("event", e.Name).Str("op", string(e.Op)).Str("model", e.ModelID).
		Str("state", string(e.Snapshot.State)).Dur("dur", e.Duration).Msg("model event")
}

func newServeCmd(opts *options) *cobra.Command {
	var (
		shutdownTimeout time.Duration
		waitTimeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the HTTP API",
		Example: "  llamachat serve --engine=simulated --auto-load=false\n  llamachat serve --config llamachat.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel, false)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, log, shutdownTimeout, waitTimeout)
		},
	}
	cmd.Flags().StringVar(&opts.corsCSV, "cors-origins", "", "Comma-separated CORS origins; enables CORS when set")
	cmd.Flags().Int64Var(&opts.cfg.MaxBodyBytes, "max-body-bytes", config.Defaults().MaxBodyBytes, "Maximum JSON request body size")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 0, "Bound on how long a request waits for an operation (0 = no bound)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, log zerolog.Logger, shutdownTimeout, waitTimeout time.Duration) error {
	publisher := coordinator.MultiPublisher{httpapi.NewCoordinatorMetrics(), logPublisher{log: log}}
	a, err := buildApp(cfg, log, publisher)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("engine close")
		}
	}()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetWaitTimeout(waitTimeout)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(httpapi.NewService(a.coord, a.store, a.session)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("models_dir", a.store.ModelsDir()).
			Str("engine", cfg.Engine).Str("model", cfg.ModelName).Bool("auto_load", cfg.ShouldAutoLoad()).
			Msg("llamachat listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
