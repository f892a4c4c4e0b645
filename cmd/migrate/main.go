package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/property-assistant/internal/config"
	"github.com/Rrens/property-assistant/internal/logger"
	"github.com/Rrens/property-assistant/internal/repository/postgres"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	steps := flag.Int("steps", 1, "number of migrations to roll back with the down command")
	source := flag.String("source", "", "migration source URL (defaults to database.migrations_url)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] up|down|version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if _, err := logger.Setup(cfg.Logging, os.Getenv("ENV")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if cfg.Store.Driver != "postgres" {
		log.Info().Str("driver", cfg.Store.Driver).Msg("Schema is created by the server at startup for this driver, nothing to do")
		return
	}

	sourceURL := cfg.Database.MigrationsURL
	if *source != "" {
		sourceURL = *source
	}
	dsn := cfg.Database.DSN()

	log.Info().Str("host", cfg.Database.Host).Int("port", cfg.Database.Port).Str("source", sourceURL).Msg("Running migrations")

	switch command {
	case "up":
		err = postgres.RunMigrations(dsn, sourceURL)
	case "down":
		err = postgres.RollbackMigrations(dsn, sourceURL, *steps)
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = postgres.MigrationVersion(dsn, sourceURL)
		if err == nil {
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current schema version")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Migration failed")
	}
}
