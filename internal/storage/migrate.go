package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// RunMigrations applies every pending migration for the given driver.
func RunMigrations(driverName, dsn string) error {
	m, err := newMigrate(driverName, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// MigrationVersion reports the current schema version.
func MigrationVersion(driverName, dsn string) (version uint, dirty bool, err error) {
	m, err := newMigrate(driverName, dsn)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

func newMigrate(driverName, dsn string) (*migrate.Migrate, error) {
	sqlDriver, openDSN, err := driverDSN(driverName, dsn)
	if err != nil {
		return nil, err
	}

	// Create a separate connection for migrations to avoid interfering with the main connection
	migrateDB, err := sql.Open(sqlDriver, openDSN)
	if err != nil {
		return nil, fmt.Errorf("open migration database: %w", err)
	}

	var driver database.Driver
	switch driverName {
	case DriverPostgres:
		driver, err = postgres.WithInstance(migrateDB, &postgres.Config{})
	default:
		driver, err = sqlite.WithInstance(migrateDB, &sqlite.Config{})
	}
	if err != nil {
		migrateDB.Close()
		return nil, fmt.Errorf("create %s driver: %w", driverName, err)
	}

	d, err := iofs.New(migrationsFS, "migrations/"+driverName)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, driverName, driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}
