package config

import (
	"time"

	"github.com/portcullis-admin/portcullis/internal/logger"
)

// Supported values for Session.Backend.
const (
	SessionBackendDB       = "db"
	SessionBackendMySQL    = "mysql"
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
	Backend    string // db, mysql, postgres or redis
	RedisAddr  string
	RedisDB    int
	GCSchedule string // cron spec for purging expired sessions of the db backend
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	ACL       ACL
	Seed      Seed
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // accept multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	LoginRateLimit int     // max login attempts per minute and ip, 0 disables the limiter
	Session        Session // session settings
}

// ACL holds authorization related settings.
type ACL struct {
	// DefaultRoute is used after login when the user's group has no landing grant.
	DefaultRoute string
	// MaxLoginFaults locks a local account after that many failed logins, a negative value disables locking.
	MaxLoginFaults int
}

// Seed holds the values used to provision an empty installation.
type Seed struct {
	AdminUsername string
	AdminPassword string // generated and logged once if empty
	AdminGroup    string
	DefaultGroup  string
	Language      string
}

// Auth holds the external authentication providers.
type Auth struct {
	LDAP LDAP
	OIDC OIDC
}

// LDAP holds the LDAP / Active Directory settings.
type LDAP struct {
	Enabled       bool
	Host          string
	Port          int
	UseSSL        bool
	UseTLS        bool
	SkipVerify    bool
	BindDN        string
	BindPassword  string
	BaseDN        string
	UserFilter    string
	GroupBaseDN   string
	GroupFilter   string
	UsernameAttr  string
	EmailAttr     string
	FirstNameAttr string
	LastNameAttr  string
	GroupNameAttr string
	Timeout       int
}

// OIDC holds the OpenID Connect settings.
type OIDC struct {
	Enabled      bool
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	GroupsClaim  string
}
