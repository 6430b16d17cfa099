// Package policy holds the login and landing policy an administrator can change at runtime.
// Values missing from the database fall back to the static configuration.
package policy

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/db/controller/setting"
)

// SettingKey is the settings row holding the policy.
const SettingKey = "acl_policy"

// Settings is the runtime policy.
type Settings struct {
	// DefaultRoute is where users without a landing grant are sent after login.
	DefaultRoute string `json:"defaultRoute" validate:"required,startswith=/"`
	// MaxLoginFaults locks an account after that many failed logins, a negative value disables the lockout.
	MaxLoginFaults int `json:"maxLoginFaults" validate:"gte=-1"`
}

// FromConfig returns the policy configured in main.toml.
func FromConfig(cfg config.ACL) Settings {
	return Settings{
		DefaultRoute:   cfg.DefaultRoute,
		MaxLoginFaults: cfg.MaxLoginFaults,
	}
}

// Load returns the stored policy, or fallback when none was saved yet.
func Load(db *gorm.DB, fallback Settings) (Settings, error) {
	s := fallback

	err := setting.Load(db, SettingKey, &s)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return fallback, nil
	}

	if err != nil {
		return fallback, err
	}

	return s, nil
}

// Validate checks s with validate.
func (s Settings) Validate(validate *validator.Validate) error {
	return validate.Struct(s) //nolint:wrapcheck
}

// Save validates and stores the policy.
func (s Settings) Save(db *gorm.DB, validate *validator.Validate) error {
	if err := s.Validate(validate); err != nil {
		return err
	}

	return setting.Save(db, SettingKey, s)
}
