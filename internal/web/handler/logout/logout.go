// Package logout ends the current session.
package logout

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/web/handler"
	"github.com/portcullis-admin/portcullis/internal/web/session"
)

// Path is the logout endpoint.
const Path = handler.APIPath + "/logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// New creates the handler.
func New(deps *handler.Deps) *Service {
	return &Service{deps: deps}
}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App) error {
	if app == nil || s.deps.Check() != nil {
		return handler.ErrNilDeps
	}

	// works without a valid session, so stale cookies can be cleared
	app.Post(Path, s.Logout)

	return nil
}

// Logout handles user logout by clearing the session.
func (s *Service) Logout(c fiber.Ctx) error {
	if id := c.Cookies(session.CookieName); id != "" {
		if err := s.deps.Sessions.Destroy(id); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	handler.ClearCookie(c, s.deps.Cfg, session.CookieName)

	return handler.NoContent(c)
}
