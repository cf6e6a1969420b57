package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Its-donkey/ivideo/internal/config"
	"github.com/Its-donkey/ivideo/internal/devapi"
	"github.com/Its-donkey/ivideo/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config.json or config.yaml")
	listen := flag.String("listen", "", "address to serve the development video API (overrides config)")
	seed := flag.Int64("seed", -1, "catalog seed (overrides config)")
	flag.Parse()

	if err := run(*configPath, *listen, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "dev-api: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, listen string, seed int64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.DevAPI.Listen = listen
	}
	if seed >= 0 {
		cfg.DevAPI.Seed = seed
	}

	logger, closeLog, err := cfg.Logger("dev-api")
	if err != nil {
		return err
	}
	defer closeLog()

	handler := logging.NewHTTPLogger(logger, 0).Middleware(devapi.Handler(devapi.New(cfg.DevAPI.Seed), logger))
	srv := &http.Server{
		Addr:              cfg.DevAPI.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server", "dev api listening", map[string]any{"addr": cfg.DevAPI.Listen, "seed": cfg.DevAPI.Seed})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("server", "shutting down", nil)
	return srv.Shutdown(shutdownCtx)
}
