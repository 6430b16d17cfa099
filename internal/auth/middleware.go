package auth

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/db/models"
	"github.com/portcullis-admin/portcullis/internal/web/session"
)

const (
	// UsernameLocal is the fiber local holding the logged-in username, read by the access log.
	UsernameLocal = "username"
	// SessionLocal is the fiber local holding the session id.
	SessionLocal = "session_id"

	userLocal = "user"
)

var decisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "acl_decisions_total",
	Help: "Authorization decisions of route guards by outcome.",
}, []string{"decision"})

// Guard protects fiber routes with the session and the ACL engine.
type Guard struct {
	sessions *session.Manager
	users    *acl.Users
	engine   *acl.Engine
}

// NewGuard creates a guard.
func NewGuard(sessions *session.Manager, users *acl.Users, engine *acl.Engine) *Guard {
	return &Guard{sessions: sessions, users: users, engine: engine}
}

// Authenticated rejects requests without a valid session with 401.
// The user is loaded fresh from the database on every request.
func (g *Guard) Authenticated() fiber.Handler {
	return func(c fiber.Ctx) error {
		if _, err := g.load(c); err != nil {
			return err
		}

		return c.Next()
	}
}

// RequireAction answers 403 unless the user may run action of module.
// An empty action requires full-module access.
func (g *Guard) RequireAction(module, action string) fiber.Handler {
	route := acl.Route{Module: module, Action: action}

	return func(c fiber.Ctx) error {
		user, err := g.load(c)
		if err != nil {
			return err
		}

		decision, err := g.engine.Authorize(user, module, action)
		decisions.WithLabelValues(decision.String()).Inc()

		if err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).Str("route", route.Path()).Msg("authorization failed")

			return fiber.NewError(fiber.StatusServiceUnavailable, "authorization is unavailable")
		}

		if decision == acl.Deny {
			log.Warn().Uint64("user_id", user.ID).Str("route", route.Path()).Msg("access denied")

			return fiber.NewError(fiber.StatusForbidden, fmt.Sprintf("access to %s denied", route.Path()))
		}

		return c.Next()
	}
}

// load returns the user of the request's session, caching it in the request locals.
func (g *Guard) load(c fiber.Ctx) (*models.User, error) {
	if user := CurrentUser(c); user != nil {
		return user, nil
	}

	id := c.Cookies(session.CookieName)

	data, err := g.sessions.Read(id)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			log.Error().Err(err).Msg("failed to read session")
		}

		return nil, fiber.NewError(fiber.StatusUnauthorized, ErrNotAuthenticated.Error())
	}

	user, err := g.users.Get(data.UserID)
	if errors.Is(err, acl.ErrNotFound) {
		return nil, g.logout(c, id)
	}

	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if !user.Enabled {
		return nil, g.logout(c, id)
	}

	c.Locals(userLocal, user)
	c.Locals(UsernameLocal, user.Username)
	c.Locals(SessionLocal, id)

	return user, nil
}

// logout drops a session whose user is gone or disabled.
func (g *Guard) logout(c fiber.Ctx, id string) error {
	if err := g.sessions.Destroy(id); err != nil {
		log.Warn().Err(err).Msg("failed to destroy session")
	}

	c.ClearCookie(session.CookieName)

	return fiber.NewError(fiber.StatusUnauthorized, ErrNotAuthenticated.Error())
}

// CurrentUser returns the user a guard loaded for this request, or nil.
func CurrentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}
