// Package daemon wires the stores, the authentication providers and the web service together.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/db"
	"github.com/portcullis-admin/portcullis/internal/db/controller/policy"
	"github.com/portcullis-admin/portcullis/internal/web"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
	"github.com/portcullis-admin/portcullis/internal/web/session"
)

const oidcDiscoveryTimeout = 15 * time.Second

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	sessions   *session.Backend
	webService *web.Service
}

// New opens the database and the session storage, seeds an empty
// installation and prepares the web service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, handler.ErrNilDeps
	}

	conn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	deps := NewDeps(cfg, conn, nil)

	if err = Seed(cfg, deps); err != nil {
		return nil, err
	}

	backend, err := session.Open(cfg, conn)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	deps.Sessions = session.NewManager(backend.Storage, cfg.Webserver.Session.ExpiryTime)
	deps.Guard = auth.NewGuard(deps.Sessions, deps.Users, deps.Engine)

	if err = externalProviders(cfg, deps); err != nil {
		_ = backend.Stop()
		return nil, err
	}

	webService, err := web.New(deps)
	if err != nil {
		_ = backend.Stop()
		return nil, err //nolint:wrapcheck
	}

	return &Daemon{
		cfg:        cfg,
		db:         conn,
		sessions:   backend,
		webService: webService,
	}, nil
}

// NewDeps builds the stores on conn. sessions may be nil, the guard is only
// created together with a session manager.
func NewDeps(cfg *config.Config, conn *gorm.DB, sessions *session.Manager) *handler.Deps {
	validate := validator.New()
	users := acl.NewUsers(conn, validate)
	engine := acl.NewEngine(conn)

	deps := &handler.Deps{
		Cfg:      cfg,
		DB:       conn,
		Validate: validate,
		Registry: acl.NewRegistry(conn),
		Groups:   acl.NewGroups(conn, validate),
		Grants:   acl.NewGrants(conn),
		Users:    users,
		Engine:   engine,
		Sessions: sessions,
		Local:    auth.NewLocalProvider(conn, users, policy.FromConfig(cfg.ACL)),
	}

	if sessions != nil {
		deps.Guard = auth.NewGuard(sessions, users, engine)
	}

	return deps
}

// externalProviders sets up LDAP and OIDC when enabled. An unreachable OIDC
// issuer is logged and OIDC stays off, so local logins keep working.
func externalProviders(cfg *config.Config, deps *handler.Deps) error {
	provisioner := auth.NewProvisioner(deps.DB, deps.Users, deps.Groups)

	if cfg.Auth.LDAP.Enabled {
		ldapProvider, err := auth.NewLDAPProvider(cfg.Auth.LDAP, provisioner)
		if err != nil {
			return fmt.Errorf("ldap: %w", err)
		}

		if err = ldapProvider.TestConnection(); err != nil {
			log.Warn().Err(err).Str("url", ldapProvider.URL()).Msg("ldap server is not reachable yet")
		}

		deps.LDAP = ldapProvider
		log.Info().Str("url", ldapProvider.URL()).Msg("ldap authentication enabled")
	}

	if cfg.Auth.OIDC.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), oidcDiscoveryTimeout)
		defer cancel()

		oidcProvider, err := auth.NewOIDCProvider(ctx, cfg.Auth.OIDC, provisioner)

		switch {
		case errors.Is(err, auth.ErrOIDCDisabled):
		case err != nil:
			log.Error().Err(err).Str("issuer", cfg.Auth.OIDC.ProviderURL).Msg("oidc discovery failed, oidc login is disabled")
		default:
			deps.OIDC = oidcProvider
			log.Info().Str("issuer", cfg.Auth.OIDC.ProviderURL).Msg("oidc authentication enabled")
		}
	}

	return nil
}

// Run serves until SIGINT or SIGTERM, then stops everything.
func (d *Daemon) Run() error {
	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)

	go func() {
		if err := d.webService.Start(addr); err != nil {
			log.Error().Err(err).Msg("web service stopped")
		}
	}()

	d.webService.WaitShutdown()

	return d.Stop()
}

// Stop closes the session storage and the database.
func (d *Daemon) Stop() error {
	var errs []error

	if err := d.sessions.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop session storage: %w", err))
	}

	if sqlDB, err := d.db.DB(); err == nil {
		if err = sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
