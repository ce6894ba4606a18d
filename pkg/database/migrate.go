package database

import (
	"database/sql"
	"embed"
	"errors"

	"go-inventory-ledger/pkg/e"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies pending migrations embedded in the binary. It uses
// its own connection because closing the migrator closes the database handle.
func RunMigrations(dsn string, log *zap.Logger) error {
	const op = "database.RunMigrations"

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return e.Wrap(op, err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		sqlDB.Close()
		return e.Wrap(op, err)
	}

	m, err := newMigrator(driver)
	if err != nil {
		sqlDB.Close()
		return e.Wrap(op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("schema up to date")
			return nil
		}
		return e.Wrap(op, err)
	}

	version, _, _ := m.Version()
	log.Info("migrations applied", zap.Uint("version", version))
	return nil
}

func newMigrator(driver migratedb.Driver) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "postgres", driver)
}
