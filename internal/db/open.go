package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

type Options struct {
	Driver string
	Path   string
	URL    string
	Logger gormlogger.Interface
}

func Open(options Options) (*gorm.DB, error) {
	logger := options.Logger
	if logger == nil {
		logger = gormlogger.Discard
	}
	gormConfig := &gorm.Config{
		Logger:         logger,
		TranslateError: true,
	}

	var (
		database *gorm.DB
		err      error
	)
	switch options.Driver {
	case DialectSQLite, "":
		database, err = openSQLite(options.Path, gormConfig)
	case DialectPostgres:
		if options.URL == "" {
			return nil, errors.New("postgres url is required")
		}
		database, err = gorm.Open(postgres.Open(options.URL), gormConfig)
		if err != nil {
			err = fmt.Errorf("open postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", options.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := applyEmbeddedMigrations(database); err != nil {
		return nil, fmt.Errorf("apply embedded migrations: %w", err)
	}
	return database, nil
}

func OpenSQLite(dbPath string) (*gorm.DB, error) {
	return Open(Options{Driver: DialectSQLite, Path: dbPath})
}

func openSQLite(dbPath string, gormConfig *gorm.Config) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	database, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer at a time; concurrent writers otherwise fail with SQLITE_BUSY.
	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("open sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return database, nil
}

func Close(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
