// Package access answers authorization questions over HTTP.
package access

import (
	"github.com/gofiber/fiber/v3"

	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/db/models"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
)

const (
	// Path checks the current user.
	Path = handler.APIPath + "/access"
	// CheckPath checks any user, for other services.
	CheckPath = Path + "/check"

	// QueryUsername names the user of CheckPath.
	QueryUsername = "username"
	// QueryModule names the module.
	QueryModule = "module"
	// QueryAction names the action, empty for full-module access.
	QueryAction = "action"
)

// Result is the answer of an access check.
type Result struct {
	Username string `json:"username"`
	Module   string `json:"module"`
	Action   string `json:"action"`
	Allowed  bool   `json:"allowed"`
	Decision string `json:"decision"`
}

// Service answers access checks.
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

	app.Get(Path, s.deps.Guard.Authenticated(), s.Self)
	app.Get(CheckPath, s.deps.Guard.RequireAction(auth.ModuleAccess, auth.ActionCheck), s.Check)

	return nil
}

// Self checks module and action for the current user.
func (s *Service) Self(c fiber.Ctx) error {
	return s.answer(c, auth.CurrentUser(c))
}

// Check checks module and action for the user named in the query.
func (s *Service) Check(c fiber.Ctx) error {
	username := c.Query(QueryUsername)
	if username == "" {
		return fiber.NewError(fiber.StatusBadRequest, QueryUsername+" is required")
	}

	user, err := s.deps.Users.GetByUsername(username)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return s.answer(c, user)
}

func (s *Service) answer(c fiber.Ctx, user *models.User) error {
	module := c.Query(QueryModule)
	if module == "" {
		return fiber.NewError(fiber.StatusBadRequest, QueryModule+" is required")
	}

	action := c.Query(QueryAction)

	decision, err := s.deps.Engine.Authorize(user, module, action)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "authorization is unavailable")
	}

	return c.JSON(Result{
		Username: user.Username,
		Module:   module,
		Action:   action,
		Allowed:  bool(decision),
		Decision: decision.String(),
	})
}
