package user_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/db/models"
	"github.com/portcullis-admin/portcullis/internal/web/handler/admin/user"
	"github.com/portcullis-admin/portcullis/internal/web/handler/handlertest"
)

func route(id uint64, suffix string) string {
	return fmt.Sprintf("%s/%d%s", user.Path, id, suffix)
}

func TestUsers(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, user.New(env.Deps))
	admin := env.Session(t, env.Admin)

	ops, err := env.Deps.Groups.Create("Operators", false)
	require.NoError(t, err)

	resp := env.Do(t, http.MethodPost, user.Path, acl.NewUser{
		Username: "bob", Password: "bob's password", FirstName: "Bob", LastName: "Builder",
	}, admin)
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))

	var bob acl.UserView
	resp.JSON(t, &bob)
	assert.Equal(t, "bob", bob.Username)
	assert.Equal(t, "Bob Builder", bob.FullName)
	assert.Equal(t, "Users", bob.Group)
	assert.True(t, bob.Enabled)
	assert.Equal(t, models.AuthSourceLocal, bob.AuthSource)

	resp = env.Do(t, http.MethodPost, user.Path, acl.NewUser{Username: "bob", Password: "bob's password"}, admin)
	assert.Equal(t, fiber.StatusConflict, resp.Status)

	resp = env.Do(t, http.MethodPost, user.Path, acl.NewUser{Username: "carol", Password: "short"}, admin)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.Status)
	assert.Equal(t, []string{"password must be at least 8 characters"}, resp.Errors(t))

	resp = env.Do(t, http.MethodGet, user.Path, nil, admin)
	require.Equal(t, fiber.StatusOK, resp.Status)

	var list []acl.UserView
	resp.JSON(t, &list)
	require.Len(t, list, 3)
	assert.Equal(t, "admin", list[0].Username)

	resp = env.Do(t, http.MethodPut, route(bob.ID, "/group"), map[string]any{"groupId": ops.ID}, admin)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))
	resp.JSON(t, &bob)
	assert.Equal(t, "Operators", bob.Group)

	resp = env.Do(t, http.MethodPut, route(bob.ID, "/group"), map[string]any{"groupId": 9999}, admin)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	resp = env.Do(t, http.MethodPut, route(bob.ID, "/enabled"), map[string]any{"enabled": false}, admin)
	require.Equal(t, fiber.StatusOK, resp.Status)
	resp.JSON(t, &bob)
	assert.False(t, bob.Enabled)

	resp = env.Do(t, http.MethodPut, route(bob.ID, "/admin"), map[string]any{"admin": true}, admin)
	require.Equal(t, fiber.StatusOK, resp.Status)
	resp.JSON(t, &bob)
	assert.True(t, bob.Admin)

	resp = env.Do(t, http.MethodPut, route(bob.ID, "/password"), map[string]any{"password": "a new password"}, admin)
	assert.Equal(t, fiber.StatusNoContent, resp.Status)

	resp = env.Do(t, http.MethodGet, route(bob.ID, ""), nil, admin)
	assert.Equal(t, fiber.StatusOK, resp.Status)

	resp = env.Do(t, http.MethodDelete, route(bob.ID, ""), nil, admin)
	assert.Equal(t, fiber.StatusNoContent, resp.Status)

	resp = env.Do(t, http.MethodGet, route(bob.ID, ""), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}

func TestUsersOwnAccount(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, user.New(env.Deps))
	admin := env.Session(t, env.Admin)

	for _, tt := range []struct {
		method, suffix string
		body           any
	}{
		{method: http.MethodDelete},
		{method: http.MethodPut, suffix: "/enabled", body: map[string]any{"enabled": false}},
		{method: http.MethodPut, suffix: "/admin", body: map[string]any{"admin": false}},
	} {
		resp := env.Do(t, tt.method, route(env.Admin.ID, tt.suffix), tt.body, admin)
		assert.Equal(t, fiber.StatusConflict, resp.Status, tt.suffix)
		assert.Equal(t, []string{"you can not do this to your own account"}, resp.Errors(t))
	}
}

func TestUsersExternalPassword(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, user.New(env.Deps))

	ext, err := env.Deps.Users.Create(acl.NewUser{
		Username: "oidc-user", AuthSource: models.AuthSourceOIDC, ExternalID: "sub-1",
	})
	require.NoError(t, err)

	resp := env.Do(t, http.MethodPut, route(ext.ID, "/password"),
		map[string]any{"password": "a new password"}, env.Session(t, env.Admin))
	assert.Equal(t, fiber.StatusConflict, resp.Status)
	assert.Equal(t, []string{auth.ErrNotLocalUser.Error()}, resp.Errors(t))
}

func TestUsersNonAdmin(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, user.New(env.Deps))
	alice := env.Session(t, env.Alice)

	resp := env.Do(t, http.MethodGet, user.Path, nil, alice)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	env.Grant(t, env.Users.ID, auth.ModuleUser, acl.FullModule)

	resp = env.Do(t, http.MethodPost, user.Path,
		acl.NewUser{Username: "eve", Password: "eve's password", Admin: true}, alice)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)
	assert.Equal(t, []string{"only admins can create admins"}, resp.Errors(t))

	resp = env.Do(t, http.MethodPost, user.Path,
		acl.NewUser{Username: "eve", Password: "eve's password"}, alice)
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))

	var eve acl.UserView
	resp.JSON(t, &eve)

	resp = env.Do(t, http.MethodPut, route(eve.ID, "/admin"), map[string]any{"admin": true}, alice)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)
}
