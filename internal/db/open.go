// Package db opens the gorm connection for the configured engine and migrates the schema.
package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/db/dsn"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// sqlitePragmas are appended to the sqlite DSN unless Extras already sets them.
// Cascades between groups and grants need foreign keys on. Concurrent writers
// wait for the lock instead of failing with SQLITE_BUSY.
var sqlitePragmas = []struct{ name, pragma string }{
	{name: "foreign_keys", pragma: "_pragma=foreign_keys(1)"},
	{name: "busy_timeout", pragma: "_pragma=busy_timeout(5000)"},
}

// Dialector returns the gorm dialector for cfg.GormEngine.
func Dialector(cfg config.DB) (gorm.Dialector, error) {
	switch cfg.GormEngine {
	case config.EngineMySQL:
		return mysql.Open(dsn.MySQL(cfg)), nil
	case config.EnginePostgres:
		return postgres.Open(dsn.Postgres(cfg)), nil
	case config.EngineSQLite, "":
		cfg.Extras = withPragmas(cfg.Extras)

		return sqlite.Open(dsn.SQLite(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownGormEngine, cfg.GormEngine)
	}
}

func withPragmas(extras string) string {
	for _, p := range sqlitePragmas {
		if strings.Contains(extras, p.name) {
			continue
		}

		if extras == "" {
			extras = p.pragma
		} else {
			extras += "&" + p.pragma
		}
	}

	return extras
}

// New opens gorm on dialector. Duplicate key errors are translated to gorm.ErrDuplicatedKey.
func New(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return conn, nil
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DB) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := New(dialector, cfg.Debug)
	if err != nil {
		return nil, err
	}

	if err = Migrate(conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
