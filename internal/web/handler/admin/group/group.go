// Package group provides handlers for managing user groups (CRUD) in admin area.
package group

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/db/models"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
)

const (
	// Path is the base path for group management.
	Path = handler.APIPath + "/groups"

	// RouteID addresses one group.
	RouteID = Path + "/:" + handler.ParamID
	// RouteMembers lists the users of a group.
	RouteMembers = RouteID + "/members"
	// RouteDeletable tells whether a group can be deleted.
	RouteDeletable = RouteID + "/deletable"
)

// Service provides CRUD operations for groups.
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

	app.Get(Path, g.RequireAction(auth.ModuleGroup, auth.ActionList), s.List)
	app.Post(Path, g.RequireAction(auth.ModuleGroup, auth.ActionCreate), s.Create)
	app.Get(RouteID, g.RequireAction(auth.ModuleGroup, auth.ActionView), s.Get)
	app.Put(RouteID, g.RequireAction(auth.ModuleGroup, auth.ActionEdit), s.Update)
	app.Delete(RouteID, g.RequireAction(auth.ModuleGroup, auth.ActionDelete), s.Delete)
	app.Get(RouteMembers, g.RequireAction(auth.ModuleGroup, auth.ActionView), s.Members)
	app.Get(RouteDeletable, g.RequireAction(auth.ModuleGroup, auth.ActionView), s.Deletable)

	return nil
}

// List returns every group with its counts.
func (s *Service) List(c fiber.Ctx) error {
	groups, err := s.deps.Groups.Overview()
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(groups)
}

// Create adds a group.
func (s *Service) Create(c fiber.Ctx) error {
	var in formInput
	if err := handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	group, err := s.deps.Groups.Create(in.Name, in.IsDefault)
	if err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Uint("group_id", group.ID).Str("name", group.Name).Bool("default", group.IsDefault).
		Msg("group created")

	view, err := s.view(group)
	if err != nil {
		return err
	}

	return handler.Created(c, view)
}

// Get returns a group with its members and grants.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	group, err := s.deps.Groups.Get(id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	members, err := s.deps.Groups.Members(id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	grants, err := s.deps.Grants.ForGroup(id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	view, err := s.view(group)
	if err != nil {
		return err
	}

	return c.JSON(Detail{
		Group:   view,
		Members: members,
		Grants:  acl.NewGrantViews(grants),
	})
}

// Update renames a group or makes it the default.
func (s *Service) Update(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	var in formInput
	if err = handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	group, err := s.deps.Groups.Update(id, in.Name, in.IsDefault)
	if err != nil {
		return err //nolint:wrapcheck
	}

	view, err := s.view(group)
	if err != nil {
		return err
	}

	return c.JSON(view)
}

// view maps group with its current counts.
func (s *Service) view(group *models.Group) (acl.GroupView, error) {
	users, err := s.deps.Groups.UserCount(group.ID)
	if err != nil {
		return acl.GroupView{}, err //nolint:wrapcheck
	}

	grants, err := s.deps.Grants.ForGroup(group.ID)
	if err != nil {
		return acl.GroupView{}, err //nolint:wrapcheck
	}

	all, err := s.deps.Groups.List()
	if err != nil {
		return acl.GroupView{}, err //nolint:wrapcheck
	}

	return acl.NewGroupView(*group, users, int64(len(grants)), len(all) > 1), nil
}

// Delete removes a group and its grants.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	if err = s.deps.Groups.Delete(id); err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Uint("group_id", id).Msg("group deleted")

	return handler.NoContent(c)
}
