package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rembgd/internal/httpapi"
)

const shutdownTimeout = 30 * time.Second

func runServe(cmd *cobra.Command, opts *options) error {
	cfg, err := resolveConfig(cmd, opts, osLookup)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	if err := a.prober.Start(ctx); err != nil {
		return err
	}

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxUploadBytes(int64(cfg.MaxUploadMB) << 20)
	httpapi.SetRequestTimeoutSeconds(int64(cfg.RequestTimeoutSeconds))
	httpapi.SetCORSOptions(cfg.CORS.Origins, cfg.CORS.Methods, cfg.CORS.Headers)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(service{Manager: a.mgr, prober: a.prober}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Warm runs in the background so /healthz and /readyz answer during it.
	go func() {
		if err := a.mgr.Warm(ctx); err != nil {
			log.Warn().Err(err).Msg("warmup interrupted")
		}
	}()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("device", a.mgr.DeviceMode()).Bool("eager", cfg.Eager).Msg("rembgd listening")
		errc <- srv.ListenAndServe()
	}()

	var procExited <-chan struct{}
	if a.proc != nil {
		procExited = a.proc.Exited()
	}

	var workerDied bool
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-procExited:
		workerDied = true
		log.Error().Msg("model worker exited; shutting down")
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	if workerDied {
		return errors.New("model worker exited unexpectedly")
	}
	return nil
}
