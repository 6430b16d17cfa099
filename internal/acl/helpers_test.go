package acl_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/db/dbtest"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

type fixture struct {
	db       *gorm.DB
	registry *acl.Registry
	groups   *acl.Groups
	grants   *acl.Grants
	users    *acl.Users
	engine   *acl.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.New(t)
	require.NoError(t, db.Create(&models.Language{Code: "en", Name: "English"}).Error)

	validate := validator.New()

	return &fixture{
		db:       db,
		registry: acl.NewRegistry(db),
		groups:   acl.NewGroups(db, validate),
		grants:   acl.NewGrants(db),
		users:    acl.NewUsers(db, validate),
		engine:   acl.NewEngine(db),
	}
}

func (f *fixture) group(t *testing.T, name string) *models.Group {
	t.Helper()

	g, err := f.groups.Create(name, false)
	require.NoError(t, err)

	return g
}

// rule returns the rule of module/action, installing the module when needed.
func (f *fixture) rule(t *testing.T, module, action string, adminOnly bool) *models.Rule {
	t.Helper()

	m, err := f.registry.InstallModule(module, "", adminOnly, action)
	require.NoError(t, err)

	r, err := f.registry.FindByModuleAction(m.ID, action, adminOnly)
	require.NoError(t, err)

	return r
}

// user inserts a user without going through password hashing.
func (f *fixture) user(t *testing.T, name string, groupID uint) *models.User {
	t.Helper()

	u := models.User{Username: name, GroupID: groupID, LanguageID: 1, Enabled: true}
	require.NoError(t, f.db.Create(&u).Error)

	return &u
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)

	return n
}

func defaults(t *testing.T, db *gorm.DB) []models.Group {
	t.Helper()

	var groups []models.Group
	require.NoError(t, db.Where("is_default = ?", true).Find(&groups).Error)

	return groups
}
