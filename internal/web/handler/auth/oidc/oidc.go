package oidc

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
	"github.com/portcullis-admin/portcullis/internal/web/handler/home"
	"github.com/portcullis-admin/portcullis/internal/web/session"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"

	// PendingCookie holds the id of the pending login between redirect and callback.
	PendingCookie = "oidc_login"

	pendingMaxAge   = 5 * 60
	callbackTimeout = 15 * time.Second
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// New creates the handler.
func New(deps *handler.Deps) *Service {
	return &Service{deps: deps}
}

// Init initializes the OIDC handler.
func (s *Service) Init(app *fiber.App) error {
	if app == nil || s.deps.Check() != nil {
		return handler.ErrNilDeps
	}

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)

	return nil
}

func (s *Service) available() error {
	if s.deps.OIDC == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "OIDC authentication is not available")
	}

	return nil
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c fiber.Ctx) error {
	if err := s.available(); err != nil {
		return err
	}

	state, err := auth.GenerateStateToken()
	if err != nil {
		return err //nolint:wrapcheck
	}

	nonce, err := auth.GenerateStateToken()
	if err != nil {
		return err //nolint:wrapcheck
	}

	pending, err := s.deps.Sessions.Create(session.Data{OIDCState: state, OIDCNonce: nonce})
	if err != nil {
		return err //nolint:wrapcheck
	}

	handler.SetCookie(c, s.deps.Cfg, PendingCookie, pending, pendingMaxAge)

	return c.Redirect().Status(fiber.StatusFound).To(s.deps.OIDC.AuthURL(state, nonce))
}

// Callback handles the OIDC callback.
func (s *Service) Callback(c fiber.Ctx) error {
	if err := s.available(); err != nil {
		return err
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		return fiber.NewError(fiber.StatusBadRequest, "invalid callback parameters")
	}

	pendingID := c.Cookies(PendingCookie)

	pending, err := s.deps.Sessions.Read(pendingID)
	if err != nil {
		log.Warn().Err(err).Msg("OIDC callback without pending login")

		return fiber.NewError(fiber.StatusBadRequest, "invalid state token")
	}

	// a pending login is good for one callback only
	if errDestroy := s.deps.Sessions.Destroy(pendingID); errDestroy != nil {
		log.Warn().Err(errDestroy).Msg("failed to delete pending login")
	}

	handler.ClearCookie(c, s.deps.Cfg, PendingCookie)

	if pending.OIDCState == "" || pending.OIDCState != state {
		return fiber.NewError(fiber.StatusBadRequest, "invalid state token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()

	user, err := s.deps.OIDC.Callback(ctx, code, pending.OIDCNonce)
	if err != nil {
		log.Error().Err(err).Msg("OIDC authentication failed")

		return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
	}

	id, err := s.deps.Sessions.Create(session.Data{UserID: user.ID, Username: user.Username})
	if err != nil {
		return err //nolint:wrapcheck
	}

	handler.SetSessionCookie(c, s.deps.Cfg, s.deps.Sessions, id)

	log.Info().Str("username", user.Username).Msg("user logged in via OIDC")

	return c.Redirect().Status(fiber.StatusFound).To(home.Landing(s.deps, user))
}
