package oidc_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"

	"github.com/portcullis-admin/portcullis/internal/web/handler/auth/oidc"
	"github.com/portcullis-admin/portcullis/internal/web/handler/handlertest"
)

func TestUnavailable(t *testing.T) {
	env := handlertest.New(t)
	env.Register(t, oidc.New(env.Deps))

	for _, path := range []string{oidc.LoginPath, oidc.CallbackPath + "?code=c&state=s"} {
		resp := env.Do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.Status, path)
		assert.Equal(t, []string{"OIDC authentication is not available"}, resp.Errors(t))
	}
}
