package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/web/session"
)

// ErrNilDeps is returned by Init when a required dependency is missing.
var ErrNilDeps = errors.New(ErrNilDepsFatalLogMsg)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App) error
}

// Deps are the collaborators handlers are built from. The daemon creates them once.
type Deps struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Validate *validator.Validate
	Registry *acl.Registry
	Groups   *acl.Groups
	Grants   *acl.Grants
	Users    *acl.Users
	Engine   *acl.Engine
	Sessions *session.Manager
	Guard    *auth.Guard
	Local    *auth.LocalProvider
	// LDAP and OIDC are nil when the provider is disabled.
	LDAP *auth.LDAPProvider
	OIDC *auth.OIDCProvider
}

// Check returns ErrNilDeps unless every required dependency is set.
func (d *Deps) Check() error {
	if d == nil || d.Cfg == nil || d.DB == nil || d.Validate == nil ||
		d.Registry == nil || d.Groups == nil || d.Grants == nil || d.Users == nil ||
		d.Engine == nil || d.Sessions == nil || d.Guard == nil || d.Local == nil {
		return ErrNilDeps
	}

	return nil
}
