// Package user provides handlers for managing user accounts in admin area.
package user

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
)

const (
	// Path is the base path for user management.
	Path = handler.APIPath + "/users"

	// RouteID addresses one user.
	RouteID = Path + "/:" + handler.ParamID
	// RouteGroup moves a user to another group.
	RouteGroup = RouteID + "/group"
	// RouteEnabled enables or disables a user.
	RouteEnabled = RouteID + "/enabled"
	// RouteAdmin grants or removes the admin bypass.
	RouteAdmin = RouteID + "/admin"
	// RoutePassword resets a local user's password.
	RoutePassword = RouteID + "/password"
)

type groupInput struct {
	GroupID uint `json:"groupId" validate:"required"`
}

type enabledInput struct {
	Enabled bool `json:"enabled"`
}

type adminInput struct {
	Admin bool `json:"admin"`
}

type passwordInput struct {
	Password string `json:"password" validate:"required"` //nolint:gosec
}

// Service provides CRUD operations for users.
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

	g := s.deps.Guard

	app.Get(Path, g.RequireAction(auth.ModuleUser, auth.ActionList), s.List)
	app.Post(Path, g.RequireAction(auth.ModuleUser, auth.ActionCreate), s.Create)
	app.Get(RouteID, g.RequireAction(auth.ModuleUser, auth.ActionView), s.Get)
	app.Delete(RouteID, g.RequireAction(auth.ModuleUser, auth.ActionDelete), s.Delete)
	app.Put(RouteGroup, g.RequireAction(auth.ModuleUser, auth.ActionEdit), s.AssignGroup)
	app.Put(RouteEnabled, g.RequireAction(auth.ModuleUser, auth.ActionEdit), s.SetEnabled)
	app.Put(RouteAdmin, g.RequireAction(auth.ModuleUser, auth.ActionEdit), s.SetAdmin)
	app.Put(RoutePassword, g.RequireAction(auth.ModuleUser, auth.ActionEdit), s.ResetPassword)

	return nil
}

// List returns every user.
func (s *Service) List(c fiber.Ctx) error {
	users, err := s.deps.Users.List()
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(users)
}

// Create adds a local user.
func (s *Service) Create(c fiber.Ctx) error {
	var in acl.NewUser
	if err := c.Bind().Body(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	// only admins hand out the admin flag
	if in.Admin && !auth.CurrentUser(c).Admin {
		return fiber.NewError(fiber.StatusForbidden, "only admins can create admins")
	}

	user, err := s.deps.Users.Create(in)
	if err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Uint64("user_id", user.ID).Str("username", user.Username).Msg("user created")

	return s.respond(c, fiber.StatusCreated, user.ID)
}

// Get returns one user.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	return s.respond(c, fiber.StatusOK, id)
}

// Delete removes a user. Users can not delete themselves.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := s.other(c)
	if err != nil {
		return err
	}

	if err = s.deps.Users.Delete(id); err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Uint64("user_id", id).Msg("user deleted")

	return handler.NoContent(c)
}

// AssignGroup moves a user to another group.
func (s *Service) AssignGroup(c fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	var in groupInput
	if err = handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	if err = s.deps.Users.AssignGroup(id, in.GroupID); err != nil {
		return err //nolint:wrapcheck
	}

	return s.respond(c, fiber.StatusOK, id)
}

// SetEnabled enables or disables a user. Users can not disable themselves.
func (s *Service) SetEnabled(c fiber.Ctx) error {
	id, err := s.other(c)
	if err != nil {
		return err
	}

	var in enabledInput
	if err = handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	if err = s.deps.Users.SetEnabled(id, in.Enabled); err != nil {
		return err //nolint:wrapcheck
	}

	return s.respond(c, fiber.StatusOK, id)
}

// SetAdmin changes the admin flag. Only admins may do that, and not on themselves.
func (s *Service) SetAdmin(c fiber.Ctx) error {
	if !auth.CurrentUser(c).Admin {
		return fiber.NewError(fiber.StatusForbidden, "only admins can change the admin flag")
	}

	id, err := s.other(c)
	if err != nil {
		return err
	}

	var in adminInput
	if err = handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	if err = s.deps.Users.SetAdmin(id, in.Admin); err != nil {
		return err //nolint:wrapcheck
	}

	return s.respond(c, fiber.StatusOK, id)
}

// ResetPassword sets a new password for a local user.
func (s *Service) ResetPassword(c fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	var in passwordInput
	if err = handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	err = s.deps.Local.ResetPassword(id, in.Password)
	if errors.Is(err, auth.ErrNotLocalUser) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	if err != nil {
		return err //nolint:wrapcheck
	}

	return handler.NoContent(c)
}

func (s *Service) respond(c fiber.Ctx, status int, id uint64) error {
	user, err := s.deps.Users.Get(id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.Status(status).JSON(acl.NewUserView(*user))
}

func userID(c fiber.Ctx) (uint64, error) {
	id, err := handler.ID(c, handler.ParamID)

	return uint64(id), err
}

// other returns the id parameter, refusing the current user's own id.
func (s *Service) other(c fiber.Ctx) (uint64, error) {
	id, err := userID(c)
	if err != nil {
		return 0, err
	}

	if id == auth.CurrentUser(c).ID {
		return 0, &acl.Error{Kind: acl.ErrConstraint, Messages: []string{"you can not do this to your own account"}}
	}

	return id, nil
}
