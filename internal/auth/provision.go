package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// ExternalUser is an account as reported by a directory or identity provider.
type ExternalUser struct {
	Username   string
	Email      string
	FirstName  string
	LastName   string
	ExternalID string
	Source     models.AuthSource
	// Groups are the directory group names of the user.
	Groups []string
}

// Provisioner maps external accounts onto local users.
type Provisioner struct {
	db     *gorm.DB
	users  *acl.Users
	groups *acl.Groups
	now    func() time.Time
}

// NewProvisioner creates a provisioner.
func NewProvisioner(db *gorm.DB, users *acl.Users, groups *acl.Groups) *Provisioner {
	return &Provisioner{db: db, users: users, groups: groups, now: time.Now}
}

// Provision returns the local account of ext, creating it on the first login.
//
// The account is put into the first local group named like one of
// ext.Groups. Without a match a new account gets the default group and an
// existing account keeps its group. Profile fields follow the directory.
func (p *Provisioner) Provision(ext ExternalUser) (*models.User, error) {
	groupID, err := p.matchGroup(ext.Groups)
	if err != nil {
		return nil, err
	}

	var user models.User

	err = p.db.Where("external_id = ? AND auth_source = ?", ext.ExternalID, ext.Source).
		First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return p.create(ext, groupID)
	case err != nil:
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.Enabled {
		return nil, ErrUserAccountDisabled
	}

	values := map[string]any{
		"email":      ext.Email,
		"first_name": ext.FirstName,
		"last_name":  ext.LastName,
		"last_login": p.now(),
	}

	if groupID != 0 && groupID != user.GroupID {
		log.Info().Uint64("user_id", user.ID).Uint("group_id", groupID).Msg("moving external user to mapped group")

		values["group_id"] = groupID
	}

	if err = p.db.Model(&user).Updates(values).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return p.users.Get(user.ID) //nolint:wrapcheck
}

func (p *Provisioner) create(ext ExternalUser, groupID uint) (*models.User, error) {
	user, err := p.users.Create(acl.NewUser{
		Username:   ext.Username,
		Email:      ext.Email,
		FirstName:  ext.FirstName,
		LastName:   ext.LastName,
		GroupID:    groupID,
		AuthSource: ext.Source,
		ExternalID: ext.ExternalID,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	now := p.now()
	if err = p.db.Model(user).Update("last_login", now).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	user.LastLogin = &now

	log.Info().Str("username", user.Username).Str("source", string(ext.Source)).
		Uint("group_id", user.GroupID).Msg("provisioned external user")

	return user, nil
}

// matchGroup returns the id of the first local group named like one of names, or 0.
func (p *Provisioner) matchGroup(names []string) (uint, error) {
	for _, name := range names {
		group, err := p.groups.GetByName(name)
		if errors.Is(err, acl.ErrNotFound) {
			continue
		}

		if err != nil {
			return 0, err //nolint:wrapcheck
		}

		return group.ID, nil
	}

	return 0, nil
}
