package auth

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// ErrLDAPDisabled is returned when LDAP authentication is disabled via configuration.
var ErrLDAPDisabled = errors.New("ldap authentication is disabled")

const (
	defaultLDAPUserFilter  = "(uid={username})"
	defaultLDAPGroupFilter = "(member={userdn})"
	defaultLDAPTimeout     = 10
)

// LDAPProvider handles LDAP authentication.
type LDAPProvider struct {
	config      config.LDAP
	provisioner *Provisioner
}

// NewLDAPProvider creates a new LDAP provider. Unset attribute names get the
// usual OpenLDAP defaults.
func NewLDAPProvider(cfg config.LDAP, provisioner *Provisioner) (*LDAPProvider, error) {
	if !cfg.Enabled {
		return nil, ErrLDAPDisabled
	}

	setDefault(&cfg.UsernameAttr, "uid")
	setDefault(&cfg.EmailAttr, "mail")
	setDefault(&cfg.FirstNameAttr, "givenName")
	setDefault(&cfg.LastNameAttr, "sn")
	setDefault(&cfg.GroupNameAttr, "cn")
	setDefault(&cfg.UserFilter, defaultLDAPUserFilter)
	setDefault(&cfg.GroupFilter, defaultLDAPGroupFilter)

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultLDAPTimeout
	}

	return &LDAPProvider{config: cfg, provisioner: provisioner}, nil
}

func setDefault(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

// URL returns the ldap:// or ldaps:// address of the server.
func (p *LDAPProvider) URL() string {
	hostPort := net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))

	if p.config.UseSSL {
		return "ldaps://" + hostPort
	}

	return "ldap://" + hostPort
}

// Connect establishes a connection to the LDAP server.
func (p *LDAPProvider) Connect() (*ldap.Conn, error) {
	var tlsConfig *tls.Config
	if p.config.UseSSL || p.config.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: p.config.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         p.config.Host,
		}
	}

	conn, err := ldap.DialURL(p.URL(), ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	if !p.config.UseSSL && p.config.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close LDAP connection")
			}

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(time.Duration(p.config.Timeout) * time.Second)

	return conn, nil
}

// Authenticate binds as the user and returns the provisioned local account.
func (p *LDAPProvider) Authenticate(username, password string) (*models.User, error) {
	// an empty password would be an anonymous bind, which most servers accept
	if password == "" {
		return nil, ErrInvalidPassword
	}

	conn, err := p.Connect()
	if err != nil {
		return nil, err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	if err = p.bindService(conn); err != nil {
		return nil, err
	}

	entry, err := p.searchUserEntry(conn, username)
	if err != nil {
		return nil, err
	}

	if err = conn.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidPassword
		}

		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	// searching groups needs the service account again
	if err = p.bindService(conn); err != nil {
		return nil, err
	}

	groups, err := p.userGroups(conn, entry.DN)
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}

	name := entry.GetAttributeValue(p.config.UsernameAttr)
	if name == "" {
		name = username
	}

	return p.provisioner.Provision(ExternalUser{
		Username:   name,
		Email:      entry.GetAttributeValue(p.config.EmailAttr),
		FirstName:  entry.GetAttributeValue(p.config.FirstNameAttr),
		LastName:   entry.GetAttributeValue(p.config.LastNameAttr),
		ExternalID: entry.DN,
		Source:     models.AuthSourceLDAP,
		Groups:     groups,
	})
}

// bindService binds with the configured service account, if any.
func (p *LDAPProvider) bindService(conn *ldap.Conn) error {
	if p.config.BindDN == "" {
		return nil
	}

	if err := conn.Bind(p.config.BindDN, p.config.BindPassword); err != nil {
		return fmt.Errorf("failed to bind with service account: %w", err)
	}

	return nil
}

// UserFilter returns the search filter for username.
func (p *LDAPProvider) UserFilter(username string) string {
	return strings.ReplaceAll(p.config.UserFilter, "{username}", ldap.EscapeFilter(username))
}

// GroupFilter returns the group search filter for userDN.
func (p *LDAPProvider) GroupFilter(userDN string) string {
	return strings.ReplaceAll(p.config.GroupFilter, "{userdn}", ldap.EscapeFilter(userDN))
}

func (p *LDAPProvider) searchUserEntry(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	searchRequest := ldap.NewSearchRequest(
		p.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, // Size limit
		p.config.Timeout,
		false,
		p.UserFilter(username),
		[]string{
			p.config.UsernameAttr,
			p.config.EmailAttr,
			p.config.FirstNameAttr,
			p.config.LastNameAttr,
			"dn",
		},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	switch len(searchResult.Entries) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return searchResult.Entries[0], nil
	default:
		return nil, ErrMultipleUsersFound
	}
}

// userGroups returns the names of the groups userDN is a member of.
func (p *LDAPProvider) userGroups(conn *ldap.Conn, userDN string) ([]string, error) {
	if p.config.GroupBaseDN == "" {
		return nil, nil
	}

	searchRequest := ldap.NewSearchRequest(
		p.config.GroupBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.config.Timeout,
		false,
		p.GroupFilter(userDN),
		[]string{p.config.GroupNameAttr, "dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for groups: %w", err)
	}

	groups := make([]string, 0, len(searchResult.Entries))
	for _, entry := range searchResult.Entries {
		if name := entry.GetAttributeValue(p.config.GroupNameAttr); name != "" {
			groups = append(groups, name)
		}
	}

	return groups, nil
}

// TestConnection connects and binds with the service account.
func (p *LDAPProvider) TestConnection() error {
	conn, err := p.Connect()
	if err != nil {
		return err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	return p.bindService(conn)
}
