// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/portcullis-admin/portcullis/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
func Create(db config.DB) (string, error) {
	switch db.GormEngine {
	case config.EngineMySQL:
		return MySQL(db), nil
	case config.EnginePostgres:
		return Postgres(db), nil
	case config.EngineSQLite, "":
		return SQLite(db), nil
	default:
		return "", fmt.Errorf("%w: %s", config.ErrUnknownGormEngine, db.GormEngine)
	}
}

// MySQL builds a go-sql-driver DSN: user:password@tcp(host:port)/name?extras.
func MySQL(db config.DB) string {
	out := fmt.Sprintf("%s:%s@tcp(%s)/%s",
		db.User,
		db.Password,
		net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		db.Name,
	)

	if db.Extras != "" {
		out += "?" + db.Extras
	}

	return out
}

// Postgres builds a keyword/value DSN. Extras are appended as given, e.g. "sslmode=disable".
func Postgres(db config.DB) string {
	out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		db.Host,
		db.Port,
		db.User,
		db.Password,
		db.Name,
	)

	if db.Extras != "" {
		out += " " + db.Extras
	}

	return out
}

// PostgresURL builds a postgres:// connection URI. Extras become the query string.
func PostgresURL(db config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:     "/" + db.Name,
		RawQuery: db.Extras,
	}

	return u.String()
}

// SQLite returns the database file, Extras become the query string.
func SQLite(db config.DB) string {
	if db.Extras == "" {
		return db.Name
	}

	return db.Name + "?" + db.Extras
}
