package auth_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/db/dbtest"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

const password = "correct horse"

type fixture struct {
	db       *gorm.DB
	validate *validator.Validate
	registry *acl.Registry
	groups   *acl.Groups
	grants   *acl.Grants
	users    *acl.Users
	engine   *acl.Engine
	// defaultGroup is "Users", created first
	defaultGroup *models.Group
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.New(t)
	require.NoError(t, db.Create(&models.Language{Code: "en", Name: "English"}).Error)

	validate := validator.New()
	groups := acl.NewGroups(db, validate)

	def, err := groups.Create("Users", false)
	require.NoError(t, err)
	require.True(t, def.IsDefault)

	return &fixture{
		db:           db,
		validate:     validate,
		registry:     acl.NewRegistry(db),
		groups:       groups,
		grants:       acl.NewGrants(db),
		users:        acl.NewUsers(db, validate),
		engine:       acl.NewEngine(db),
		defaultGroup: def,
	}
}

func (f *fixture) localUser(t *testing.T, name string) *models.User {
	t.Helper()

	u, err := f.users.Create(acl.NewUser{Username: name, Password: password})
	require.NoError(t, err)

	return u
}

func (f *fixture) reload(t *testing.T, id uint64) *models.User {
	t.Helper()

	u, err := f.users.Get(id)
	require.NoError(t, err)

	return u
}
