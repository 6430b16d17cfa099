// Package grant provides handlers for the ACL grants of groups.
package grant

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
	"github.com/portcullis-admin/portcullis/internal/web/handler/admin/group"
)

const (
	// RouteGroupGrants lists and adds the grants of a group.
	RouteGroupGrants = group.RouteID + "/grants"
	// RouteMissing lists the rules a group does not hold.
	RouteMissing = group.RouteID + "/missing-rules"
	// RouteDefault sets the default grant of a group.
	RouteDefault = group.RouteID + "/default"
	// RouteGrant addresses one grant.
	RouteGrant = handler.APIPath + "/grants/:" + handler.ParamID
)

type grantInput struct {
	RuleIDs []uint `json:"ruleIds" validate:"required,min=1,dive,gt=0"`
}

type defaultInput struct {
	ACLID uint `json:"aclId" validate:"required"`
}

// Service manages grants.
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

	app.Get(RouteGroupGrants, g.RequireAction(auth.ModuleACL, auth.ActionList), s.List)
	app.Post(RouteGroupGrants, g.RequireAction(auth.ModuleACL, auth.ActionGrant), s.Grant)
	app.Get(RouteMissing, g.RequireAction(auth.ModuleACL, auth.ActionList), s.Missing)
	app.Put(RouteDefault, g.RequireAction(auth.ModuleACL, auth.ActionDefault), s.SetDefault)
	app.Delete(RouteGrant, g.RequireAction(auth.ModuleACL, auth.ActionRevoke), s.Revoke)

	return nil
}

// List returns the grants of a group.
func (s *Service) List(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	if _, err = s.deps.Groups.Get(id); err != nil {
		return err //nolint:wrapcheck
	}

	grants, err := s.deps.Grants.ForGroup(id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(acl.NewGrantViews(grants))
}

// Grant grants the rules of the body to a group. A single rule already held
// is a conflict, in a batch held rules are skipped.
func (s *Service) Grant(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	var in grantInput
	if err = handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	if len(in.RuleIDs) == 1 {
		if _, err = s.deps.Grants.Grant(id, in.RuleIDs[0]); err != nil {
			return err //nolint:wrapcheck
		}
	} else if _, err = s.deps.Grants.GrantMany(id, in.RuleIDs); err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Uint("group_id", id).Uints("rule_ids", in.RuleIDs).Msg("rules granted")

	grants, err := s.deps.Grants.ForGroup(id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return handler.Created(c, acl.NewGrantViews(grants))
}

// Missing returns the rules a group does not hold yet.
func (s *Service) Missing(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	rules, err := s.deps.Groups.MissingRules(id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(acl.NewRuleViews(rules))
}

// SetDefault makes a grant the landing page of its group.
func (s *Service) SetDefault(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	var in defaultInput
	if err = handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	if err = s.deps.Groups.SetDefaultAcl(id, in.ACLID); err != nil {
		return err //nolint:wrapcheck
	}

	return handler.NoContent(c)
}

// Revoke deletes a grant.
func (s *Service) Revoke(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	if err = s.deps.Grants.Revoke(id); err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Uint("acl_id", id).Msg("grant revoked")

	return handler.NoContent(c)
}
