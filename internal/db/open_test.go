package db_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/db"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		engine  string
		want    string
		wantErr error
	}{
		{engine: config.EngineMySQL, want: "mysql"},
		{engine: config.EnginePostgres, want: "postgres"},
		{engine: config.EngineSQLite, want: "sqlite"},
		{engine: "", want: "sqlite"},
		{engine: "oracle", wantErr: config.ErrUnknownGormEngine},
	}

	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			d, err := db.Dialector(config.DB{GormEngine: tt.engine, Name: "x.db"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func TestOpenMigrates(t *testing.T) {
	conn, err := db.Open(config.DB{
		GormEngine: config.EngineSQLite,
		Name:       filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)

	for _, m := range models.All() {
		assert.True(t, conn.Migrator().HasTable(m), "%T", m)
	}
}

func TestWithPragmas(t *testing.T) {
	tests := []struct {
		extras string
		want   string
	}{
		{extras: "", want: "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{extras: "_pragma=foreign_keys(0)", want: "_pragma=foreign_keys(0)&_pragma=busy_timeout(5000)"},
		{extras: "cache=shared&_pragma=busy_timeout(100)", want: "cache=shared&_pragma=busy_timeout(100)&_pragma=foreign_keys(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.extras, func(t *testing.T) {
			assert.Equal(t, tt.want, db.WithPragmas(tt.extras))
		})
	}
}
