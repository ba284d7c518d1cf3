// Package migration applies and authors the SQL schema of the order engine
// using golang-migrate.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/erp/orderflow/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Status is the schema state of a database.
type Status struct {
	Version uint // 0 when nothing was ever applied
	Dirty   bool
	Pending []Entry
}

// Migrator applies the order engine schema to a postgres database.
type Migrator struct {
	migrate *migrate.Migrate
	fsys    fs.FS
	logger  *zap.Logger
}

// New creates a Migrator on an open postgres connection. An empty dir uses
// the schema embedded in the binary.
func New(db *sql.DB, dir string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}
	return open(dir, logger, func(src source.Driver) (*migrate.Migrate, error) {
		return migrate.NewWithInstance("iofs", src, "postgres", driver)
	})
}

// NewFromURL creates a Migrator from a postgres URL.
func NewFromURL(databaseURL, dir string, logger *zap.Logger) (*Migrator, error) {
	return open(dir, logger, func(src source.Driver) (*migrate.Migrate, error) {
		return migrate.NewWithSourceInstance("iofs", src, databaseURL)
	})
}

func open(dir string, logger *zap.Logger, build func(source.Driver) (*migrate.Migrate, error)) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var fsys fs.FS = migrations.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	}

	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	m, err := build(src)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	logger = logger.Named("migration")
	m.Log = migrateLogger{logger.Sugar()}
	return &Migrator{migrate: m, fsys: fsys, logger: logger}, nil
}

// migrateLogger routes golang-migrate's progress output to zap.
type migrateLogger struct {
	log *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...any) { l.log.Debugf(format, v...) }
func (l migrateLogger) Verbose() bool                  { return false }

// run executes op and logs the resulting version. ErrNoChange is success.
func (m *Migrator) run(name string, op func() error, fields ...zap.Field) error {
	m.logger.Info("Running migration", append([]zap.Field{zap.String("op", name)}, fields...)...)

	err := op()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema already up to date", zap.String("op", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s: %w", name, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migration complete",
		zap.String("op", name),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	return m.run("up", m.migrate.Up)
}

// Down rolls back every migration.
func (m *Migrator) Down() error {
	return m.run("down", m.migrate.Down)
}

// Steps applies n migrations; a negative n rolls back.
func (m *Migrator) Steps(n int) error {
	return m.run("steps", func() error { return m.migrate.Steps(n) }, zap.Int("steps", n))
}

// GoTo migrates up or down to version.
func (m *Migrator) GoTo(version uint) error {
	return m.run("goto", func() error { return m.migrate.Migrate(version) }, zap.Uint("target_version", version))
}

// Version returns the applied version; a database that was never migrated
// reports 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Status reports the applied version and the migrations not yet applied.
func (m *Migrator) Status() (Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return Status{}, err
	}
	entries, err := Scan(m.fsys)
	if err != nil {
		return Status{}, err
	}

	st := Status{Version: version, Dirty: dirty}
	for _, e := range entries {
		if e.Version > uint64(version) {
			st.Pending = append(st.Pending, e)
		}
	}
	return st, nil
}

// Force records version as applied without running anything. Use it only
// to clear a dirty state after fixing a failed migration by hand.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every table, including orders, stock and ledgers.
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping all order engine tables")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}
