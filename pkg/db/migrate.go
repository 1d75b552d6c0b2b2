package db

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"appserver/pkg/config"
)

func MigrateConfig(migrationsPath string, cfg config.Config) error {
	connString := migrationConnString(cfg)
	if connString == "" {
		return ErrNotConfigured
	}

	m, err := migrate.New(migrationsPath, connString)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return err
	}
	return nil
}
