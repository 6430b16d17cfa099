// Package home sends logged-in users to their landing page and describes the current user.
package home

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/db/controller/policy"
	"github.com/portcullis-admin/portcullis/internal/db/models"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
)

const (
	// MePath describes the current user.
	MePath = handler.APIPath + "/me"
	// PasswordPath changes the current user's password.
	PasswordPath = MePath + "/password"
)

// Me is the body of GET /api/me.
type Me struct {
	User    acl.UserView `json:"user"`
	Landing string       `json:"landing"`
}

type passwordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// Service is the landing handler service.
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

	guard := s.deps.Guard.Authenticated()

	app.Get(handler.RootPath, guard, s.Home)
	app.Get(MePath, guard, s.Me)
	app.Put(PasswordPath, guard, s.ChangePassword)

	return nil
}

// Home redirects to the landing page of the user's group.
func (s *Service) Home(c fiber.Ctx) error {
	return c.Redirect().Status(fiber.StatusFound).To(Landing(s.deps, auth.CurrentUser(c)))
}

// Me returns the current user and its landing page.
func (s *Service) Me(c fiber.Ctx) error {
	user := auth.CurrentUser(c)

	return c.JSON(Me{User: acl.NewUserView(*user), Landing: Landing(s.deps, user)})
}

// ChangePassword changes the current user's password.
func (s *Service) ChangePassword(c fiber.Ctx) error {
	var in passwordInput
	if err := handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	err := s.deps.Local.ChangePassword(auth.CurrentUser(c).ID, in.OldPassword, in.NewPassword)

	switch {
	case err == nil:
		return handler.NoContent(c)
	case errors.Is(err, auth.ErrInvalidOldPassword):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auth.ErrNotLocalUser):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}

// Landing returns the path user is sent to after login: the route of the
// group's default grant, else the policy's default route.
func Landing(deps *handler.Deps, user *models.User) string {
	route, err := deps.Engine.Landing(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve landing route")
	}

	if route != nil {
		return route.Path()
	}

	settings, err := policy.Load(deps.DB, policy.FromConfig(deps.Cfg.ACL))
	if err != nil {
		log.Error().Err(err).Msg("failed to load policy")
	}

	return settings.DefaultRoute
}
