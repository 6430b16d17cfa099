package grant_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/web/handler/admin/grant"
	"github.com/portcullis-admin/portcullis/internal/web/handler/handlertest"
)

func groupRoute(pattern string, id uint) string {
	return strings.Replace(pattern, ":id", fmt.Sprint(id), 1)
}

func ruleID(t *testing.T, env *handlertest.Env, module, action string) uint {
	t.Helper()

	m, err := env.Deps.Registry.Module(module)
	require.NoError(t, err)

	r, err := env.Deps.Registry.FindByModuleAction(m.ID, action, false)
	require.NoError(t, err)

	return r.ID
}

func TestGrants(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, grant.New(env.Deps))
	admin := env.Session(t, env.Admin)

	grants := groupRoute(grant.RouteGroupGrants, env.Users.ID)
	list := ruleID(t, env, auth.ModuleGroup, auth.ActionList)
	view := ruleID(t, env, auth.ModuleGroup, auth.ActionView)
	user := ruleID(t, env, auth.ModuleUser, acl.FullModule)

	resp := env.Do(t, http.MethodPost, grants, map[string]any{"ruleIds": []uint{list}}, admin)
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))

	var held []acl.GrantView
	resp.JSON(t, &held)
	require.Len(t, held, 1)
	assert.Equal(t, "group", held[0].Module)
	assert.Equal(t, "list", held[0].Action)
	assert.Equal(t, env.Users.ID, held[0].GroupID)

	// one rule already held is a conflict
	resp = env.Do(t, http.MethodPost, grants, map[string]any{"ruleIds": []uint{list}}, admin)
	assert.Equal(t, fiber.StatusConflict, resp.Status)

	// a batch skips it
	resp = env.Do(t, http.MethodPost, grants, map[string]any{"ruleIds": []uint{list, view, user}}, admin)
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))
	resp.JSON(t, &held)
	assert.Len(t, held, 3)

	resp = env.Do(t, http.MethodPost, grants, map[string]any{"ruleIds": []uint{}}, admin)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.Status)

	resp = env.Do(t, http.MethodPost, grants, map[string]any{"ruleIds": []uint{9999}}, admin)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	resp = env.Do(t, http.MethodPost, groupRoute(grant.RouteGroupGrants, 9999),
		map[string]any{"ruleIds": []uint{list}}, admin)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	resp = env.Do(t, http.MethodGet, grants, nil, admin)
	require.Equal(t, fiber.StatusOK, resp.Status)
	resp.JSON(t, &held)
	assert.Len(t, held, 3)

	all, err := env.Deps.Registry.List(nil)
	require.NoError(t, err)

	resp = env.Do(t, http.MethodGet, groupRoute(grant.RouteMissing, env.Users.ID), nil, admin)
	require.Equal(t, fiber.StatusOK, resp.Status)

	var missing []acl.RuleView
	resp.JSON(t, &missing)
	assert.Len(t, missing, len(all)-3)

	for _, r := range missing {
		assert.NotContains(t, []uint{list, view, user}, r.ID)
	}

	landing := held[0]
	for _, g := range held {
		if g.Module == "user" {
			landing = g
		}
	}

	resp = env.Do(t, http.MethodPut, groupRoute(grant.RouteDefault, env.Users.ID),
		map[string]any{"aclId": landing.ID}, admin)
	require.Equal(t, fiber.StatusNoContent, resp.Status, string(resp.Body))

	route, err := env.Deps.Engine.Landing(env.Alice)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, "/user", route.Path())

	resp = env.Do(t, http.MethodPut, groupRoute(grant.RouteDefault, env.Users.ID),
		map[string]any{"aclId": 9999}, admin)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	resp = env.Do(t, http.MethodDelete, groupRoute(grant.RouteGrant, landing.ID), nil, admin)
	assert.Equal(t, fiber.StatusNoContent, resp.Status)

	route, err = env.Deps.Engine.Landing(env.Alice)
	require.NoError(t, err)
	assert.Nil(t, route)

	resp = env.Do(t, http.MethodDelete, groupRoute(grant.RouteGrant, landing.ID), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}

func TestGrantsGuarded(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, grant.New(env.Deps))
	alice := env.Session(t, env.Alice)

	grants := groupRoute(grant.RouteGroupGrants, env.Users.ID)

	resp := env.Do(t, http.MethodGet, grants, nil, alice)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	env.Grant(t, env.Users.ID, auth.ModuleACL, auth.ActionList)

	resp = env.Do(t, http.MethodGet, grants, nil, alice)
	assert.Equal(t, fiber.StatusOK, resp.Status)

	resp = env.Do(t, http.MethodPost, grants,
		map[string]any{"ruleIds": []uint{ruleID(t, env, auth.ModuleUser, acl.FullModule)}}, alice)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)
}
