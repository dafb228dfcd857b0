package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"expenseadvisor/internal/backend"
	"expenseadvisor/internal/cli"
	"expenseadvisor/internal/config"
	apphttp "expenseadvisor/internal/http"
	applog "expenseadvisor/internal/log"
	"expenseadvisor/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func loadConfig() (*config.Config, error) {
	cfg, err := cli.LoadAndValidateConfig(flagEnvFile, flagConfig)
	if err != nil {
		return nil, err
	}
	if flagPort != "" {
		cfg.Port = flagPort
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, cmd.OutOrStdout())

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("backend config: %w", err)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.SessionBackend)
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()
	svc := result.Service

	sweeper, err := worker.NewSessionSweeper(svc, cfg.SweepSchedule, cfg.SessionTTL, logger)
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               cfg.Addr(),
		CurrencySymbol:     cfg.CurrencySymbol,
		RateLimitPerMinute: cfg.RateLimit,
		TrustedProxies:     cfg.TrustedProxies,
	}, svc, logger)
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting expense advisor server",
			"port", cfg.Port,
			"backend", cfg.SessionBackend,
			"events", cfg.AMQPEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
