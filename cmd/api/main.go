// Package main is the entry point for the MySoilMate plant catalog API.
// It wires together configuration, the entity and blob stores, the
// catalog service and the HTTP router.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/yoyothesheep/MySoilMate/internal/blob"
	"github.com/yoyothesheep/MySoilMate/internal/catalog"
	"github.com/yoyothesheep/MySoilMate/internal/config"
	"github.com/yoyothesheep/MySoilMate/internal/data"
)

// appVersion is the current version of the API, shown in logs and /healthz.
const appVersion = "1.0.0"

// applicationDependencies bundles every shared resource that HTTP handlers need.
// A pointer to this struct is the receiver on all handler and route methods.
type applicationDependencies struct {
	config  *config.Config
	logger  *slog.Logger
	catalog *catalog.Service
	metrics *metrics
}

// main parses flags, loads configuration, opens the stores, wires up
// dependencies and starts the HTTP server.
func main() {
	var (
		configPath string
		flags      config.Config
	)

	flag.StringVar(&configPath, "config", "config.yaml", "Path to YAML config file (optional)")
	flag.IntVar(&flags.Port, "port", 4000, "Server port")
	flag.StringVar(&flags.Env, "env", "development", "Environment(development|staging|production)")
	flag.StringVar(&flags.Store.Driver, "store", "sqlite", "Entity store (memory|sqlite|postgres)")
	flag.StringVar(&flags.Store.DSN, "db-dsn", "mysoilmate.db", "SQLite path or PostgreSQL DSN")
	flag.BoolVar(&flags.Store.Seed, "seed", false, "Load the sample catalog into an empty store")

	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	// Flags given explicitly on the command line win over file and env.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = flags.Port
		case "env":
			cfg.Env = flags.Env
		case "store":
			cfg.Store.Driver = flags.Store.Driver
		case "db-dsn":
			cfg.Store.DSN = flags.Store.DSN
		case "seed":
			cfg.Store.Seed = flags.Store.Seed
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer closeStore()

	if cfg.Store.Seed {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = data.Seed(ctx, store, logger)
		cancel()
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
	}

	svc, err := newCatalog(cfg, store, logger)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	app := &applicationDependencies{
		config:  cfg,
		logger:  logger,
		catalog: svc,
		metrics: newMetrics(),
	}

	err = app.serve()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// openStore opens the configured entity store. SQL stores are pinged and
// migrated before use.
func openStore(cfg *config.Config, logger *slog.Logger) (data.Store, func(), error) {
	var dialect data.Dialect
	switch cfg.Store.Driver {
	case "memory":
		logger.Info("using in-memory store")
		return data.NewMemoryStore(), func() {}, nil
	case "sqlite":
		dialect = data.SQLite
	case "postgres":
		dialect = data.Postgres
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := data.OpenSQL(ctx, dialect, cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("database connection pool established", "driver", cfg.Store.Driver)

	if err := s.Migrate(ctx, logger); err != nil {
		s.Close()
		return nil, nil, err
	}

	return s, func() { s.Close() }, nil
}

// newBlobStore returns the image store. A memory entity store gets a
// memory blob store so its images vanish with it.
func newBlobStore(cfg *config.Config) (blob.Store, error) {
	if cfg.Store.Driver == "memory" {
		return blob.NewMemoryStore(), nil
	}
	return blob.NewDiskStore(cfg.Images.Dir)
}

// newCatalog builds the blob store and signer the image mode needs and
// returns the catalog service over store.
func newCatalog(cfg *config.Config, store data.Store, logger *slog.Logger) (*catalog.Service, error) {
	blobs, err := newBlobStore(cfg)
	if err != nil {
		return nil, err
	}

	opts := catalog.Options{
		Blobs:     blobs,
		ImageMode: catalog.ImageMode(cfg.Images.Mode),
		Logger:    logger,
	}
	if opts.ImageMode == catalog.ImageSigned {
		opts.Signer, err = blob.NewSigner([]byte(cfg.Images.SigningKey), cfg.Images.URLTTL, "/api/blobs")
		if err != nil {
			return nil, err
		}
	}

	return catalog.NewService(store, opts)
}
