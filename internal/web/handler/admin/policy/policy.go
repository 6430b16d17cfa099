// Package policy provides the handlers of the runtime login and landing policy.
package policy

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/auth"
	policystore "github.com/portcullis-admin/portcullis/internal/db/controller/policy"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
)

// Path is the policy endpoint.
const Path = handler.APIPath + "/policy"

// Service reads and changes the policy.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// New creates the handler.
func New(deps *handler.Deps) *Service {
	return &Service{deps: deps}
}

// Init registers routes.
func (s *Service) Init(app *fiber.App) error {
	if app == nil || s.deps.Check() != nil {
		return handler.ErrNilDeps
	}

	guard := s.deps.Guard.RequireAction(auth.ModulePolicy, "")

	app.Get(Path, guard, s.Get)
	app.Put(Path, guard, s.Put)

	return nil
}

func (s *Service) fallback() policystore.Settings {
	return policystore.FromConfig(s.deps.Cfg.ACL)
}

// Get returns the current policy.
func (s *Service) Get(c fiber.Ctx) error {
	settings, err := policystore.Load(s.deps.DB, s.fallback())
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(settings)
}

// Put replaces the policy.
func (s *Service) Put(c fiber.Ctx) error {
	var in policystore.Settings
	if err := handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	if err := in.Save(s.deps.DB, s.deps.Validate); err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Str("default_route", in.DefaultRoute).Int("max_login_faults", in.MaxLoginFaults).
		Str("by", auth.CurrentUser(c).Username).Msg("policy changed")

	return c.JSON(in)
}
