package policy_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	policystore "github.com/portcullis-admin/portcullis/internal/db/controller/policy"
	"github.com/portcullis-admin/portcullis/internal/web/handler/admin/policy"
	"github.com/portcullis-admin/portcullis/internal/web/handler/handlertest"
)

func TestPolicy(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, policy.New(env.Deps))
	admin := env.Session(t, env.Admin)

	resp := env.Do(t, http.MethodGet, policy.Path, nil, admin)
	require.Equal(t, fiber.StatusOK, resp.Status)

	var settings policystore.Settings
	resp.JSON(t, &settings)
	assert.Equal(t, policystore.Settings{DefaultRoute: "/welcome", MaxLoginFaults: 3}, settings)

	resp = env.Do(t, http.MethodPut, policy.Path,
		policystore.Settings{DefaultRoute: "/dashboard", MaxLoginFaults: -1}, admin)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))

	stored, err := policystore.Load(env.Deps.DB, policystore.FromConfig(env.Deps.Cfg.ACL))
	require.NoError(t, err)
	assert.Equal(t, policystore.Settings{DefaultRoute: "/dashboard", MaxLoginFaults: -1}, stored)

	for _, invalid := range []policystore.Settings{
		{DefaultRoute: "dashboard", MaxLoginFaults: 3},
		{DefaultRoute: "", MaxLoginFaults: 3},
		{DefaultRoute: "/", MaxLoginFaults: -2},
	} {
		resp = env.Do(t, http.MethodPut, policy.Path, invalid, admin)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.Status, invalid)
	}
}

func TestPolicyIsAdminOnly(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, policy.New(env.Deps))
	alice := env.Session(t, env.Alice)

	// granting the admin-only rule does not help a regular user
	m, err := env.Deps.Registry.Module(auth.ModulePolicy)
	require.NoError(t, err)

	rule, err := env.Deps.Registry.FindByModuleAction(m.ID, acl.FullModule, true)
	require.NoError(t, err)

	_, err = env.Deps.Grants.Grant(env.Users.ID, rule.ID)
	require.NoError(t, err)

	resp := env.Do(t, http.MethodGet, policy.Path, nil, alice)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	resp = env.Do(t, http.MethodPut, policy.Path, policystore.Settings{DefaultRoute: "/", MaxLoginFaults: 1}, alice)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)
}
