// Package main запускает локальный бэкенд CRM для разработки клиента.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/loyalty-client/internal/config"
	"github.com/mmeshcher/loyalty-client/internal/crmstub"
	"github.com/mmeshcher/loyalty-client/internal/demo"
	"github.com/mmeshcher/loyalty-client/internal/handler"
	"github.com/mmeshcher/loyalty-client/internal/logging"
	"github.com/mmeshcher/loyalty-client/internal/middleware"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	seed, err := loadSeed(cfg.SeedFile)
	if err != nil {
		sugar.Fatalw("seed error", "error", err.Error())
	}

	backend := crmstub.NewBackend(seed.Available, logger.Named("backend"))
	if err := backend.Seed(cfg.StubPhone, cfg.StubPassword, seed); err != nil {
		sugar.Fatalw("seed member error", "error", err.Error())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	authMiddleware := middleware.NewAuthMiddleware(cfg.StubSecret)
	h := handler.NewHandler(backend, logger, authMiddleware, reg)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting crm stub", "addr", cfg.RunAddress, "member", cfg.StubPhone)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down crm stub...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("crm stub stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("crm stub terminated with error", "error", err)
	}
}

func loadSeed(path string) (demo.Dataset, error) {
	if path == "" {
		return demo.DefaultSeed()
	}
	return demo.LoadSeedFile(path)
}
