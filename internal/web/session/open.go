package session

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/db/dsn"
)

// fiberTable is used by the gofiber storage drivers, they bring their own schema.
const fiberTable = "fiber_sessions"

// Backend is an opened storage plus whatever has to be stopped with it.
type Backend struct {
	Storage Storage
	sweeper *cron.Cron
}

// Stop stops the sweeper, if any, and closes the storage.
func (b *Backend) Stop() error {
	if b.sweeper != nil {
		<-b.sweeper.Stop().Done()
	}

	return b.Storage.Close()
}

// Open opens the storage configured in cfg.Webserver.Session.
// The db backend reuses db, the mysql and postgres backends connect with cfg.DB.
func Open(cfg *config.Config, db *gorm.DB) (*Backend, error) {
	s := cfg.Webserver.Session

	switch s.Backend {
	case config.SessionBackendDB, "":
		storage := NewDBStorage(db)

		sweeper, err := storage.StartSweeper(s.GCSchedule)
		if err != nil {
			return nil, fmt.Errorf("invalid session gc schedule %q: %w", s.GCSchedule, err)
		}

		return &Backend{Storage: storage, sweeper: sweeper}, nil
	case config.SessionBackendMySQL:
		log.Info().Str("table", fiberTable).Msg("using mysql session storage")

		return &Backend{Storage: mysql.New(mysql.Config{
			ConnectionURI: dsn.MySQL(cfg.DB),
			Table:         fiberTable,
		})}, nil
	case config.SessionBackendPostgres:
		log.Info().Str("table", fiberTable).Msg("using postgres session storage")

		return &Backend{Storage: postgres.New(postgres.Config{
			ConnectionURI: dsn.PostgresURL(cfg.DB),
			Table:         fiberTable,
		})}, nil
	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr: s.RedisAddr,
			DB:   s.RedisDB,
		})

		return &Backend{Storage: NewRedisStorage(client)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownSessionBackend, s.Backend)
	}
}
