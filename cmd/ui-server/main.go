package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Its-donkey/ivideo/internal/config"
	"github.com/Its-donkey/ivideo/internal/ui/app"
	"github.com/Its-donkey/ivideo/internal/ui/catalog"
	"github.com/Its-donkey/ivideo/internal/ui/server"
	"github.com/Its-donkey/ivideo/internal/ui/storage"
)

const component = "ui-server"

func main() {
	configPath := flag.String("config", "", "path to config.json or config.yaml")
	listen := flag.String("listen", "", "address to serve the iVideo page (overrides config)")
	apiBase := flag.String("api", "", "base URL of the video API (overrides config)")
	templatesDir := flag.String("templates", "", "directory with html/template files (defaults to the built-in templates)")
	flag.Parse()

	if err := run(*configPath, *listen, *apiBase, *templatesDir); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", component, err)
		os.Exit(1)
	}
}

func run(configPath, listen, apiBase, templatesDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if apiBase != "" {
		cfg.API.BaseURL = apiBase
	}

	logger, closeLog, err := cfg.Logger(component)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage.Store())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	client := catalog.NewClient(cfg.API.BaseURL, logger, catalog.WithTimeout(cfg.API.Timeout()))
	page := app.New(client, store, logger, app.WithCatalogRetry(catalog.RetryPolicy{
		MaxTries:        uint(cfg.API.CatalogMaxTries),
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}))
	defer page.Dispose()
	page.Init(ctx)

	var logPath string
	if cfg.Log.Dir != "" {
		logPath = filepath.Join(cfg.Log.Dir, component+".log")
	}
	handler, err := server.New(server.Options{
		Page:         page,
		Logger:       logger,
		TemplatesDir: templatesDir,
		LogPath:      logPath,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server", "ui listening", map[string]any{
			"addr":    cfg.Server.Listen,
			"api":     client.BaseURL(),
			"storage": cfg.Storage.Driver,
		})
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
