package acl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

func TestUserCreate(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Create(acl.NewUser{Username: "alice", Password: "long enough"})
	require.ErrorIs(t, err, acl.ErrConfiguration, "no default group yet")

	users := f.group(t, "Users")
	staff := f.group(t, "Staff")

	tests := []struct {
		name      string
		in        acl.NewUser
		wantGroup uint
		wantErr   error
	}{
		{name: "default group", in: acl.NewUser{Username: "alice", Password: "long enough"}, wantGroup: users.ID},
		{name: "explicit group", in: acl.NewUser{Username: "bob", Password: "long enough", GroupID: staff.ID}, wantGroup: staff.ID},
		{name: "duplicate", in: acl.NewUser{Username: "alice", Password: "long enough"}, wantErr: acl.ErrDuplicateUser},
		{name: "short username", in: acl.NewUser{Username: "al", Password: "long enough"}, wantErr: acl.ErrValidation},
		{name: "short password", in: acl.NewUser{Username: "carol", Password: "short"}, wantErr: acl.ErrValidation},
		{name: "bad email", in: acl.NewUser{Username: "dave", Email: "nope", Password: "long enough"}, wantErr: acl.ErrValidation},
		{name: "unknown group", in: acl.NewUser{Username: "erin", Password: "long enough", GroupID: 999}, wantErr: acl.ErrNotFound},
		{name: "unknown language", in: acl.NewUser{Username: "fred", Password: "long enough", LanguageID: 9}, wantErr: acl.ErrNotFound},
		{
			name:      "external user without password",
			in:        acl.NewUser{Username: "gina", AuthSource: models.AuthSourceLDAP, ExternalID: "cn=gina"},
			wantGroup: users.ID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := f.users.Create(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.NotEmpty(t, acl.Messages(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantGroup, u.GroupID)
			assert.True(t, u.Enabled)

			if tt.in.Password != "" {
				assert.NotEqual(t, tt.in.Password, u.Password, "only the hash is stored")
				assert.True(t, u.VerifyPassword(tt.in.Password))
			}
		})
	}
}

func TestUserFlags(t *testing.T) {
	f := newFixture(t)
	users := f.group(t, "Users")
	staff := f.group(t, "Staff")

	u, err := f.users.Create(acl.NewUser{Username: "alice", Password: "long enough"})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(u).Update("faults", 4).Error)

	require.NoError(t, f.users.SetEnabled(u.ID, false))
	got, err := f.users.Get(u.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, 4, got.Faults)

	require.NoError(t, f.users.SetEnabled(u.ID, true))
	got, err = f.users.Get(u.ID)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
	assert.Zero(t, got.Faults, "enabling clears the faults")

	require.NoError(t, f.users.SetAdmin(u.ID, true))
	require.NoError(t, f.users.SetAdmin(u.ID, true), "setting the same value again is fine")

	require.NoError(t, f.users.AssignGroup(u.ID, staff.ID))
	got, err = f.users.GetByUsername("alice")
	require.NoError(t, err)
	assert.True(t, got.Admin)
	assert.Equal(t, staff.ID, got.GroupID)
	assert.Equal(t, "Staff", got.Group.Name)

	require.ErrorIs(t, f.users.AssignGroup(u.ID, 999), acl.ErrNotFound)
	require.ErrorIs(t, f.users.AssignGroup(999, users.ID), acl.ErrNotFound)
	require.ErrorIs(t, f.users.SetAdmin(999, true), acl.ErrNotFound)

	require.ErrorIs(t, f.users.SetPassword(u.ID, "short"), acl.ErrValidation)
	require.NoError(t, f.users.SetPassword(u.ID, "another long one"))
	got, err = f.users.Get(u.ID)
	require.NoError(t, err)
	assert.True(t, got.VerifyPassword("another long one"))
}

func TestUserListAndDelete(t *testing.T) {
	f := newFixture(t)
	users := f.group(t, "Users")

	edit := f.rule(t, "pages", "edit", false)
	_, err := f.grants.Grant(users.ID, edit.ID)
	require.NoError(t, err)

	bob := f.user(t, "bob", users.ID)
	f.user(t, "alice", users.ID)

	list, err := f.users.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Username)
	assert.Equal(t, "Users", list[0].Group)

	require.NoError(t, f.users.Delete(bob.ID))
	require.ErrorIs(t, f.users.Delete(bob.ID), acl.ErrNotFound)

	_, err = f.users.Get(bob.ID)
	require.ErrorIs(t, err, acl.ErrNotFound)

	assert.Equal(t, int64(1), f.count(t, &models.Acl{}), "grants belong to the group, not the user")
}
