// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/db"
)

// New opens a migrated sqlite database in a temp dir. It is closed when the test ends.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.Open(config.DB{
		GormEngine: config.EngineSQLite,
		Name:       filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return conn
}

// Mock opens gorm with the mysql dialector on top of sqlmock.
func Mock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := db.New(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), false)
	require.NoError(t, err)

	return conn, mock
}
