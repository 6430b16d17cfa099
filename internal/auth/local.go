package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/db/controller/policy"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db       *gorm.DB
	users    *acl.Users
	fallback policy.Settings
	now      func() time.Time
}

// NewLocalProvider creates a new local authentication provider.
// fallback is the login policy used while none is stored in the database.
func NewLocalProvider(db *gorm.DB, users *acl.Users, fallback policy.Settings) *LocalProvider {
	return &LocalProvider{
		db:       db,
		users:    users,
		fallback: fallback,
		now:      time.Now,
	}
}

// Authenticate authenticates a user against the local database.
//
// A wrong password increments the user's fault counter. Reaching the
// policy's MaxLoginFaults disables the account. A successful login resets
// the counter and records the login time.
func (p *LocalProvider) Authenticate(username, password string) (*models.User, error) {
	var user models.User

	err := p.db.Where("username = ? AND auth_source = ?", username, models.AuthSourceLocal).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.Enabled {
		return nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		return nil, p.fault(&user)
	}

	now := p.now()

	if err = p.db.Model(&user).Updates(map[string]any{"faults": 0, "last_login": now}).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	user.Faults = 0
	user.LastLogin = &now

	return &user, nil
}

// fault records a failed login and locks the account at the fault limit.
// The counter is incremented in the store so parallel failures all count.
func (p *LocalProvider) fault(user *models.User) error {
	settings, err := policy.Load(p.db, p.fallback)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load login policy, using configured defaults")
	}

	var locked bool

	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("faults", gorm.Expr("faults + 1")).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Select("faults").Scan(&user.Faults).Error; err != nil {
			return err
		}

		locked = settings.MaxLoginFaults > 0 && user.Faults >= settings.MaxLoginFaults
		if !locked {
			return nil
		}

		return tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("enabled", false).Error
	})
	if err != nil {
		return fmt.Errorf("failed to record login fault: %w", err)
	}

	if locked {
		user.Enabled = false

		log.Warn().Uint64("user_id", user.ID).Int("faults", user.Faults).Msg("account locked")

		return ErrAccountLocked
	}

	return ErrInvalidPassword
}

// ChangePassword changes a local user's password after checking the old one.
func (p *LocalProvider) ChangePassword(userID uint64, oldPassword, newPassword string) error {
	user, err := p.localUser(userID)
	if err != nil {
		return err
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	return p.users.SetPassword(userID, newPassword) //nolint:wrapcheck
}

// ResetPassword sets a new password without the old one, for administrators.
func (p *LocalProvider) ResetPassword(userID uint64, newPassword string) error {
	if _, err := p.localUser(userID); err != nil {
		return err
	}

	return p.users.SetPassword(userID, newPassword) //nolint:wrapcheck
}

func (p *LocalProvider) localUser(userID uint64) (*models.User, error) {
	user, err := p.users.Get(userID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if user.AuthSource != models.AuthSourceLocal {
		return nil, ErrNotLocalUser
	}

	return user, nil
}
