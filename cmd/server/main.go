package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acheong08/depguardian/internal/channel"
	"github.com/acheong08/depguardian/internal/config"
	"github.com/acheong08/depguardian/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: depguardian.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := cfg.OpenStore(ctx, logger)
	if err != nil {
		return err
	}
	if closer, ok := reports.(io.Closer); ok {
		defer closer.Close()
	}

	client := channel.NewClient(cfg.BackendURL)
	client.StreamTimeout = cfg.StreamTimeout
	client.Logger = logger

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(client, reports, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "port", cfg.Port, "backend", cfg.BackendURL, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
