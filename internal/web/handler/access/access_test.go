package access_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/web/handler/access"
	"github.com/portcullis-admin/portcullis/internal/web/handler/handlertest"
)

func query(path string, values map[string]string) string {
	q := url.Values{}
	for k, v := range values {
		q.Set(k, v)
	}

	return path + "?" + q.Encode()
}

func TestSelf(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, access.New(env.Deps))
	alice := env.Session(t, env.Alice)

	env.Grant(t, env.Users.ID, auth.ModuleGroup, auth.ActionList)

	tests := []struct {
		name    string
		module  string
		action  string
		allowed bool
	}{
		{name: "granted action", module: auth.ModuleGroup, action: auth.ActionList, allowed: true},
		{name: "other action", module: auth.ModuleGroup, action: auth.ActionDelete},
		{name: "full module asked", module: auth.ModuleGroup},
		{name: "unknown module", module: "nope", action: auth.ActionList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.Do(t, http.MethodGet, query(access.Path, map[string]string{
				access.QueryModule: tt.module,
				access.QueryAction: tt.action,
			}), nil, alice)
			require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))

			var result access.Result
			resp.JSON(t, &result)
			assert.Equal(t, "alice", result.Username)
			assert.Equal(t, tt.module, result.Module)
			assert.Equal(t, tt.action, result.Action)
			assert.Equal(t, tt.allowed, result.Allowed)

			if tt.allowed {
				assert.Equal(t, "allow", result.Decision)
			} else {
				assert.Equal(t, "deny", result.Decision)
			}
		})
	}

	resp := env.Do(t, http.MethodGet, access.Path, nil, alice)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, []string{"module is required"}, resp.Errors(t))

	resp = env.Do(t, http.MethodGet, query(access.Path, map[string]string{access.QueryModule: "group"}), nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)
}

func TestCheck(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, access.New(env.Deps))
	alice := env.Session(t, env.Alice)

	path := query(access.CheckPath, map[string]string{
		access.QueryUsername: "admin",
		access.QueryModule:   auth.ModulePolicy,
	})

	resp := env.Do(t, http.MethodGet, path, nil, alice)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	env.Grant(t, env.Users.ID, auth.ModuleAccess, acl.FullModule)

	resp = env.Do(t, http.MethodGet, path, nil, alice)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))

	var result access.Result
	resp.JSON(t, &result)
	assert.Equal(t, "admin", result.Username)
	assert.True(t, result.Allowed)

	resp = env.Do(t, http.MethodGet, query(access.CheckPath, map[string]string{
		access.QueryUsername: "mallory",
		access.QueryModule:   auth.ModuleGroup,
	}), nil, alice)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	resp = env.Do(t, http.MethodGet, query(access.CheckPath, map[string]string{access.QueryModule: "group"}), nil, alice)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, []string{"username is required"}, resp.Errors(t))
}
