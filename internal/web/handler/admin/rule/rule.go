// Package rule provides handlers for the module and rule registry.
package rule

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
)

const (
	// ModulesPath lists and installs modules.
	ModulesPath = handler.APIPath + "/modules"
	// Path lists and creates rules.
	Path = handler.APIPath + "/rules"
	// RouteID addresses one rule.
	RouteID = Path + "/:" + handler.ParamID

	// QueryAdminOnly filters rules by their admin_only flag.
	QueryAdminOnly = "adminOnly"
)

type moduleInput struct {
	Name        string   `json:"name"        validate:"required,max=100"`
	Description string   `json:"description" validate:"max=255"`
	AdminOnly   bool     `json:"adminOnly"`
	Actions     []string `json:"actions"     validate:"dive,max=100"`
}

type ruleInput struct {
	ModuleID uint `json:"moduleId" validate:"required"`
	// Action "" creates the full-module rule.
	Action    string `json:"action"    validate:"max=100"`
	AdminOnly bool   `json:"adminOnly"`
}

// ModuleView is an installed module.
type ModuleView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Service manages the registry.
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

	app.Get(ModulesPath, g.RequireAction(auth.ModuleRule, auth.ActionList), s.Modules)
	app.Post(ModulesPath, g.RequireAction(auth.ModuleRule, auth.ActionCreate), s.InstallModule)
	app.Get(Path, g.RequireAction(auth.ModuleRule, auth.ActionList), s.List)
	app.Post(Path, g.RequireAction(auth.ModuleRule, auth.ActionCreate), s.Create)
	app.Get(RouteID, g.RequireAction(auth.ModuleRule, auth.ActionView), s.Get)
	app.Delete(RouteID, g.RequireAction(auth.ModuleRule, auth.ActionDelete), s.Delete)

	return nil
}

// Modules lists the installed modules.
func (s *Service) Modules(c fiber.Ctx) error {
	modules, err := s.deps.Registry.Modules()
	if err != nil {
		return err //nolint:wrapcheck
	}

	out := make([]ModuleView, 0, len(modules))
	for _, m := range modules {
		out = append(out, ModuleView{ID: m.ID, Name: m.Name, Description: m.Description})
	}

	return c.JSON(out)
}

// InstallModule registers a module with its rules. Existing rules are kept.
func (s *Service) InstallModule(c fiber.Ctx) error {
	var in moduleInput
	if err := handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	module, err := s.deps.Registry.InstallModule(in.Name, in.Description, in.AdminOnly, in.Actions...)
	if err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Str("module", module.Name).Strs("actions", in.Actions).Msg("module installed")

	return handler.Created(c, ModuleView{ID: module.ID, Name: module.Name, Description: module.Description})
}

// List returns the rules, optionally filtered with ?adminOnly=true|false.
func (s *Service) List(c fiber.Ctx) error {
	var adminOnly *bool

	if raw := c.Query(QueryAdminOnly); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid "+QueryAdminOnly)
		}

		adminOnly = &v
	}

	rules, err := s.deps.Registry.List(adminOnly)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(acl.NewRuleViews(rules))
}

// Create adds a rule. A rule for the same module and action is a conflict.
func (s *Service) Create(c fiber.Ctx) error {
	var in ruleInput
	if err := handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	rule, err := s.deps.Registry.Create(in.ModuleID, in.Action, in.AdminOnly)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return handler.Created(c, acl.NewRuleView(*rule))
}

// Get returns one rule.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	rule, err := s.deps.Registry.Get(id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(acl.NewRuleView(*rule))
}

// Delete removes a rule no group holds.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	if err = s.deps.Registry.Delete(id); err != nil {
		return err //nolint:wrapcheck
	}

	return handler.NoContent(c)
}
