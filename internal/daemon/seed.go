package daemon

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/db/models"
	"github.com/portcullis-admin/portcullis/internal/secret"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
)

var languageNames = map[string]string{ //nolint:gochecknoglobals
	"de": "Deutsch",
	"en": "English",
	"es": "Español",
	"fr": "Français",
}

// Seed installs the service catalog and, on an empty installation, the
// language, the default and admin groups and the first admin. Running it
// again changes nothing.
func Seed(cfg *config.Config, deps *handler.Deps) error {
	if err := seedLanguage(deps.DB, cfg.Seed.Language); err != nil {
		return err
	}

	if err := auth.InstallCatalog(deps.Registry); err != nil {
		return fmt.Errorf("failed to install catalog: %w", err)
	}

	if _, err := ensureGroup(deps, cfg.Seed.DefaultGroup, true); err != nil {
		return err
	}

	adminGroup, err := ensureGroup(deps, cfg.Seed.AdminGroup, false)
	if err != nil {
		return err
	}

	return seedAdmin(cfg.Seed, deps, adminGroup)
}

func seedLanguage(db *gorm.DB, code string) error {
	name, ok := languageNames[code]
	if !ok {
		name = code
	}

	language := models.Language{Code: code}
	if err := db.Where(models.Language{Code: code}).Attrs(models.Language{Name: name}).
		FirstOrCreate(&language).Error; err != nil {
		return fmt.Errorf("failed to seed language %s: %w", code, err)
	}

	return nil
}

// ensureGroup returns the group called name, creating it when missing.
// isDefault only applies to a group created here.
func ensureGroup(deps *handler.Deps, name string, isDefault bool) (*models.Group, error) {
	group, err := deps.Groups.GetByName(name)
	if err == nil {
		return group, nil
	}

	if !errors.Is(err, acl.ErrNotFound) {
		return nil, err //nolint:wrapcheck
	}

	if isDefault {
		// an installation that picked another default keeps it
		if _, err = deps.Groups.Default(); err == nil {
			isDefault = false
		}
	}

	group, err = deps.Groups.Create(name, isDefault)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	log.Info().Str("group", group.Name).Bool("default", group.IsDefault).Msg("group seeded")

	return group, nil
}

// seedAdmin creates the first admin when there are no users at all.
// Without a configured password one is generated and logged once.
func seedAdmin(seed config.Seed, deps *handler.Deps, group *models.Group) error {
	var count int64
	if err := deps.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if count > 0 {
		return nil
	}

	password := seed.AdminPassword
	generated := password == ""

	if generated {
		var err error
		if password, err = secret.Password(); err != nil {
			return fmt.Errorf("failed to generate admin password: %w", err)
		}
	}

	admin, err := deps.Users.Create(acl.NewUser{
		Username: seed.AdminUsername,
		Password: password,
		GroupID:  group.ID,
		Admin:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin %s: %w", seed.AdminUsername, err)
	}

	event := log.Warn().Str("username", admin.Username).Str("group", group.Name)
	if generated {
		event = event.Str("password", password)
	}

	event.Msg("admin user created, change the password after the first login")

	return nil
}
