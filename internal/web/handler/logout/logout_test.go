package logout_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/web/handler"
	"github.com/portcullis-admin/portcullis/internal/web/handler/handlertest"
	"github.com/portcullis-admin/portcullis/internal/web/handler/home"
	"github.com/portcullis-admin/portcullis/internal/web/handler/logout"
	"github.com/portcullis-admin/portcullis/internal/web/session"
)

func newEnv(t *testing.T) *handlertest.Env {
	t.Helper()

	env := handlertest.New(t)
	env.Register(t, logout.New(env.Deps), home.New(env.Deps))

	return env
}

func TestInitNilDeps(t *testing.T) {
	require.ErrorIs(t, logout.New(nil).Init(fiber.New()), handler.ErrNilDeps)
}

func TestLogout(t *testing.T) {
	env := newEnv(t)
	id := env.Session(t, env.Alice)

	resp := env.Do(t, http.MethodGet, home.MePath, nil, id)
	require.Equal(t, fiber.StatusOK, resp.Status)

	resp = env.Do(t, http.MethodPost, logout.Path, nil, id)
	require.Equal(t, fiber.StatusNoContent, resp.Status, string(resp.Body))

	value, ok := resp.Cookie(session.CookieName)
	require.True(t, ok, "the session cookie is cleared")
	assert.Empty(t, value)

	_, err := env.Deps.Sessions.Read(id)
	require.ErrorIs(t, err, session.ErrNoSession)

	resp = env.Do(t, http.MethodGet, home.MePath, nil, id)
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)
}

func TestLogoutWithoutSession(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		name      string
		sessionID string
	}{
		{name: "no cookie"},
		{name: "unknown session", sessionID: "stale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.Do(t, http.MethodPost, logout.Path, nil, tt.sessionID)
			assert.Equal(t, fiber.StatusNoContent, resp.Status, string(resp.Body))

			_, ok := resp.Cookie(session.CookieName)
			assert.True(t, ok)
		})
	}
}
