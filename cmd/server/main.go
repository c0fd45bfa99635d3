// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/sozercan/qa-mole/internal/analyzer"
	"github.com/sozercan/qa-mole/internal/config"
	"github.com/sozercan/qa-mole/internal/examples"
	"github.com/sozercan/qa-mole/internal/logging"
	"github.com/sozercan/qa-mole/internal/server"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if err := run(*configFile, *verbose); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// run serves until shutdown. Resources are released before it returns, so a
// failing run can exit the process right away.
func run(configFile string, verbose bool) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCloser, err := logging.Setup(cfg.Log, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logCloser.Close()

	store, err := openStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open example store: %w", err)
	}
	defer store.Close()

	qa := analyzer.New(analyzer.BackendLoader(*cfg), store)
	if cfg.Model.LoadOnStart {
		// the service still starts; Predict retries the load
		if _, err := qa.Load(); err != nil {
			slog.Warn("backend not loaded at startup", "error", err)
		}
	}

	srv, err := server.New(*cfg, qa, store)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Run(); err != nil {
		slog.Error("server failed", "error", err)
		return err
	}
	return nil
}

func openStore(cfg config.StoreConfig) (*examples.Store, error) {
	store, err := examples.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	seed, err := examples.DefaultSeed()
	if err != nil {
		store.Close()
		return nil, err
	}
	added, err := store.SeedIfEmpty(ctx, seed)
	if err != nil {
		store.Close()
		return nil, err
	}

	if cfg.SeedFile != "" {
		extra, err := examples.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			store.Close()
			return nil, err
		}
		n, err := store.Seed(ctx, extra)
		if err != nil {
			store.Close()
			return nil, err
		}
		added += n
	}

	count, err := store.Count(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	slog.Info("example store ready", "path", cfg.Path, "examples", count, "added", added)
	return store, nil
}
