package session

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// DBStorage keeps sessions in the sessions table of the main database.
// Expired rows are ignored on read and removed by Sweep.
type DBStorage struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBStorage creates a database backed storage.
func NewDBStorage(db *gorm.DB) *DBStorage {
	return &DBStorage{db: db, now: time.Now}
}

// Get implements Storage.
func (s *DBStorage) Get(key string) ([]byte, error) {
	var row models.Session

	err := s.db.Where("id = ? AND (expires_at = 0 OR expires_at > ?)", key, s.now().Unix()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return row.Value, nil
}

// Set implements Storage. exp 0 keeps the session until deleted.
func (s *DBStorage) Set(key string, val []byte, exp time.Duration) error {
	row := models.Session{ID: key, Value: val}
	if exp > 0 {
		row.ExpiresAt = s.now().Add(exp).Unix()
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&row).Error
}

// Delete implements Storage.
func (s *DBStorage) Delete(key string) error {
	return s.db.Where("id = ?", key).Delete(&models.Session{}).Error
}

// Reset implements Storage.
func (s *DBStorage) Reset() error {
	return s.db.Where("1 = 1").Delete(&models.Session{}).Error
}

// Close implements Storage. The database connection is owned by the daemon and stays open.
func (s *DBStorage) Close() error {
	return nil
}

// Sweep deletes expired sessions and returns how many were removed.
func (s *DBStorage) Sweep() (int64, error) {
	result := s.db.Where("expires_at > 0 AND expires_at <= ?", s.now().Unix()).Delete(&models.Session{})

	return result.RowsAffected, result.Error
}

// StartSweeper runs Sweep on the cron schedule spec. Stop the returned cron on shutdown.
func (s *DBStorage) StartSweeper(spec string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		n, err := s.Sweep()
		if err != nil {
			log.Error().Err(err).Msg("failed to sweep expired sessions")
			return
		}

		if n > 0 {
			log.Debug().Int64("count", n).Msg("expired sessions removed")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()

	return c, nil
}
