package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/property-assistant/internal/config"
	"github.com/Rrens/property-assistant/internal/domain"
	"github.com/Rrens/property-assistant/internal/repository/postgres"
	"github.com/Rrens/property-assistant/internal/repository/sqlstore"
)

// stores is the repository set backing one server process
type stores struct {
	sessions   domain.SessionRepository
	messages   domain.MessageRepository
	properties domain.PropertyRepository
	leads      domain.LeadRepository
	scheduling domain.SchedulingRepository
	close      func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsURL); err != nil {
				return nil, err
			}
		}

		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		log.Info().Str("host", cfg.Database.Host).Msg("Connected to Postgres")

		return &stores{
			sessions:   postgres.NewSessionRepository(db.Pool),
			messages:   postgres.NewMessageRepository(db.Pool),
			properties: postgres.NewPropertyRepository(db.Pool),
			leads:      postgres.NewLeadRepository(db.Pool),
			scheduling: postgres.NewSchedulingRepository(db.Pool),
			close:      db.Close,
		}, nil

	case sqlstore.DriverSQLite, sqlstore.DriverMySQL:
		store, err := sqlstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		log.Info().Str("driver", store.Driver()).Msg("Connected to SQL store")

		return &stores{
			sessions:   sqlstore.NewSessionRepository(store),
			messages:   sqlstore.NewMessageRepository(store),
			properties: sqlstore.NewPropertyRepository(store),
			leads:      sqlstore.NewLeadRepository(store),
			scheduling: sqlstore.NewSchedulingRepository(store),
			close:      func() { store.Close() },
		}, nil
	}

	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}
