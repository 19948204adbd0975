package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourflix/catalogd/internal/api"
	"github.com/yourflix/catalogd/internal/backfill"
	"github.com/yourflix/catalogd/internal/config"
	"github.com/yourflix/catalogd/internal/database"
	"github.com/yourflix/catalogd/internal/logger"
	"github.com/yourflix/catalogd/internal/resolve"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Provider keys are commonly kept in a local .env file.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Bare provider key variables take precedence over config files so
	// deployments can inject secrets without templating YAML.
	if key := os.Getenv("TMDB_API_KEY"); key != "" {
		cfg.Metadata.TMDB.APIKey = key
	}
	if key := os.Getenv("OMDB_API_KEY"); key != "" {
		cfg.Metadata.OMDB.APIKey = key
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("logLevel", cfg.Logging.Level).
		Msg("starting catalogd")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store := database.NewStore(db)

	resolver := resolve.NewService(&cfg.Metadata, &log.Logger)
	resolver.SetPersistentCache(store)

	for name, configured := range resolver.ProviderStatus() {
		log.Info().Str("provider", name).Bool("configured", configured).Msg("provider status")
	}

	var runner *backfill.Runner
	if cfg.Backfill.Enabled {
		runner, err = backfill.NewRunner(cfg.Backfill, store, resolver, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create backfill runner")
		}
		runner.Start()
	}

	server := api.NewServer(cfg, resolver, store, log.Logger)

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	log.Info().Str("address", cfg.Server.Address()).Msg("catalogd ready")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	if runner != nil {
		if err := runner.Stop(); err != nil {
			log.Warn().Err(err).Msg("failed to stop backfill runner")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("stopped")
}
