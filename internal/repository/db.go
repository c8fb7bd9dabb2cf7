package repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open opens the image catalog at filename and brings its schema up to date
func Open(filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("while opening catalog %s: %w", filename, err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded migrations. The migrate instance is not
// closed because that would close db as well.
func Migrate(db *sql.DB) error {
	log := logrus.WithField("component", "catalog")
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("while loading catalog migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("while preparing catalog migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("while preparing catalog migrations: %w", err)
	}
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Debug("Migrate: catalog schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("while migrating catalog: %w", err)
	}
	log.Info("Migrate: catalog schema migrated")
	return nil
}
