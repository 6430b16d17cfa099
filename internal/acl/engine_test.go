package acl_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/db/dbtest"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

func TestAuthorizeEditors(t *testing.T) {
	f := newFixture(t)

	f.group(t, "Guests")
	f.group(t, "Users")
	editors := f.group(t, "Editors")
	require.Equal(t, uint(3), editors.ID)

	_, err := f.registry.InstallModule("pages", "Pages", false, "edit", "publish", "delete")
	require.NoError(t, err)

	edit := f.rule(t, "pages", "edit", false)
	publish := f.rule(t, "pages", "publish", false)

	_, err = f.grants.Grant(editors.ID, edit.ID)
	require.NoError(t, err)
	_, err = f.grants.Grant(editors.ID, publish.ID)
	require.NoError(t, err)

	alice := f.user(t, "alice", editors.ID)
	bob := f.user(t, "bob", 2)

	tests := []struct {
		name   string
		user   *models.User
		module string
		action string
		want   acl.Decision
	}{
		{name: "edit granted", user: alice, module: "pages", action: "edit", want: acl.Allow},
		{name: "publish granted", user: alice, module: "pages", action: "publish", want: acl.Allow},
		{name: "delete not granted", user: alice, module: "pages", action: "delete", want: acl.Deny},
		{name: "full module not granted", user: alice, module: "pages", action: acl.FullModule, want: acl.Deny},
		{name: "unknown action", user: alice, module: "pages", action: "archive", want: acl.Deny},
		{name: "unknown module", user: alice, module: "blog", action: "edit", want: acl.Deny},
		{name: "other group", user: bob, module: "pages", action: "edit", want: acl.Deny},
		{name: "nil user", user: nil, module: "pages", action: "edit", want: acl.Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.engine.Authorize(tt.user, tt.module, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, bool(tt.want), f.engine.Allowed(tt.user, tt.module, tt.action))
		})
	}
}

func TestAuthorizeFullModuleGrant(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, "Writers")

	_, err := f.registry.InstallModule("pages", "", false, acl.FullModule, "edit")
	require.NoError(t, err)

	full := f.rule(t, "pages", acl.FullModule, false)
	_, err = f.grants.Grant(g.ID, full.ID)
	require.NoError(t, err)

	u := f.user(t, "writer", g.ID)

	for _, action := range []string{"edit", acl.FullModule} {
		got, err := f.engine.Authorize(u, "pages", action)
		require.NoError(t, err)
		assert.Equal(t, acl.Allow, got, action)
	}

	// an action without its own rule is still covered by the full-module rule
	got, err := f.engine.Authorize(u, "pages", "archive")
	require.NoError(t, err)
	assert.Equal(t, acl.Allow, got)
}

func TestAuthorizeAdminAndDisabled(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, "Users")

	f.rule(t, "pages", "edit", false)

	admin := f.user(t, "root", g.ID)
	admin.Admin = true

	got, err := f.engine.Authorize(admin, "pages", "edit")
	require.NoError(t, err)
	assert.Equal(t, acl.Allow, got)

	// admins are allowed even for modules nobody registered
	got, err = f.engine.Authorize(admin, "nothing", "here")
	require.NoError(t, err)
	assert.Equal(t, acl.Allow, got)

	edit := f.rule(t, "pages", "edit", false)
	_, err = f.grants.Grant(g.ID, edit.ID)
	require.NoError(t, err)

	disabled := f.user(t, "gone", g.ID)
	disabled.Enabled = false

	got, err = f.engine.Authorize(disabled, "pages", "edit")
	require.NoError(t, err)
	assert.Equal(t, acl.Deny, got)
}

func TestAuthorizeAdminOnlyRule(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, "Users")

	secret := f.rule(t, "system", "shutdown", true)

	grant, err := f.grants.Grant(g.ID, secret.ID)
	require.NoError(t, err)
	assert.NotZero(t, grant.ID)

	u := f.user(t, "user", g.ID)

	got, err := f.engine.Authorize(u, "system", "shutdown")
	require.NoError(t, err)
	assert.Equal(t, acl.Deny, got)

	u.Admin = true

	got, err = f.engine.Authorize(u, "system", "shutdown")
	require.NoError(t, err)
	assert.Equal(t, acl.Allow, got)
}

func TestAuthorizeStoreFailureDenies(t *testing.T) {
	db, mock := dbtest.Mock(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset")) //nolint:err113

	engine := acl.NewEngine(db)
	u := &models.User{ID: 1, GroupID: 1, Enabled: true}

	got, err := engine.Authorize(u, "pages", "edit")
	require.Error(t, err)
	assert.Equal(t, acl.Deny, got)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset")) //nolint:err113
	assert.False(t, engine.Allowed(u, "pages", "edit"))
}

func TestLanding(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, "Editors")
	u := f.user(t, "alice", g.ID)

	route, err := f.engine.Landing(u)
	require.NoError(t, err)
	assert.Nil(t, route, "no grants, no landing")

	edit := f.rule(t, "pages", "edit", false)
	grant, err := f.grants.Grant(g.ID, edit.ID)
	require.NoError(t, err)

	route, err = f.engine.Landing(u)
	require.NoError(t, err)
	assert.Nil(t, route, "a grant is not the landing grant until flagged")

	require.NoError(t, f.groups.SetDefaultAcl(g.ID, grant.ID))

	route, err = f.engine.Landing(u)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, acl.Route{Module: "pages", Action: "edit"}, *route)
	assert.Equal(t, "/pages/edit", route.Path())

	require.NoError(t, f.grants.Revoke(grant.ID))

	route, err = f.engine.Landing(u)
	require.NoError(t, err)
	assert.Nil(t, route, "revoked landing grant")

	route, err = f.engine.Landing(nil)
	require.NoError(t, err)
	assert.Nil(t, route)
}

func TestRoutePath(t *testing.T) {
	assert.Equal(t, "/pages", acl.Route{Module: "pages"}.Path())
	assert.Equal(t, "/pages/edit", acl.Route{Module: "pages", Action: "edit"}.Path())
	assert.Equal(t, "allow", acl.Allow.String())
	assert.Equal(t, "deny", acl.Deny.String())
}
