package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/config"
)

func TestNewLDAPProvider(t *testing.T) {
	_, err := NewLDAPProvider(config.LDAP{}, nil)
	require.ErrorIs(t, err, ErrLDAPDisabled)

	p, err := NewLDAPProvider(config.LDAP{Enabled: true, Host: "ldap.example.org", Port: 389}, nil)
	require.NoError(t, err)

	assert.Equal(t, "uid", p.config.UsernameAttr)
	assert.Equal(t, "mail", p.config.EmailAttr)
	assert.Equal(t, "cn", p.config.GroupNameAttr)
	assert.Equal(t, defaultLDAPTimeout, p.config.Timeout)
	assert.Equal(t, "ldap://ldap.example.org:389", p.URL())

	p.config.UseSSL = true
	p.config.Port = 636
	assert.Equal(t, "ldaps://ldap.example.org:636", p.URL())
}

func TestLDAPFilters(t *testing.T) {
	p, err := NewLDAPProvider(config.LDAP{
		Enabled:    true,
		UserFilter: "(&(objectClass=person)(sAMAccountName={username}))",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "(&(objectClass=person)(sAMAccountName=alice))", p.UserFilter("alice"))
	assert.Equal(t, `(&(objectClass=person)(sAMAccountName=\2a\29))`, p.UserFilter("*)"))
	assert.Equal(t, "(member=uid=alice,dc=example,dc=org)", p.GroupFilter("uid=alice,dc=example,dc=org"))
}

func TestLDAPAuthenticateEmptyPassword(t *testing.T) {
	p, err := NewLDAPProvider(config.LDAP{Enabled: true, Host: "127.0.0.1", Port: 1}, nil)
	require.NoError(t, err)

	// refused before any connection is made
	_, err = p.Authenticate("alice", "")
	require.ErrorIs(t, err, ErrInvalidPassword)
}
