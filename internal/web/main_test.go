package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/web/handler"
	"github.com/portcullis-admin/portcullis/internal/web/handler/admin/group"
	"github.com/portcullis-admin/portcullis/internal/web/handler/handlertest"
	"github.com/portcullis-admin/portcullis/internal/web/handler/login"
	"github.com/portcullis-admin/portcullis/internal/web/session"
)

func newService(t *testing.T) (*Service, *handlertest.Env) {
	t.Helper()

	env := handlertest.New(t)

	s, err := New(env.Deps)
	require.NoError(t, err)

	// requests go through the full middleware stack
	env.App = s.App

	return s, env
}

func TestNewNilDeps(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, handler.ErrNilDeps)

	_, err = New(&handler.Deps{})
	require.ErrorIs(t, err, handler.ErrNilDeps)
}

func TestCheckAlive(t *testing.T) {
	s, env := newService(t)

	resp := env.Do(t, http.MethodGet, CheckAlivePath, nil, "")
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "OK", string(resp.Body))

	s.alive.Store(false)

	resp = env.Do(t, http.MethodGet, CheckAlivePath, nil, "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.Status)
}

func TestRequestID(t *testing.T) {
	_, env := newService(t)

	resp := env.Do(t, http.MethodGet, CheckAlivePath, nil, "")
	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}

func TestNotFound(t *testing.T) {
	_, env := newService(t)

	resp := env.Do(t, http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
	assert.Len(t, resp.Errors(t), 1)
}

func TestLoginFlow(t *testing.T) {
	_, env := newService(t)

	resp := env.Do(t, http.MethodPost, login.Path,
		login.Request{Username: "admin", Password: handlertest.Password}, "")
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))

	id, ok := resp.Cookie(session.CookieName)
	require.True(t, ok)

	resp = env.Do(t, http.MethodGet, group.Path, nil, id)
	require.Equal(t, fiber.StatusOK, resp.Status)

	// the guard counted the decision
	req := httptest.NewRequest(http.MethodGet, MetricsPath, http.NoBody)

	metrics, err := env.App.Test(req, fiber.TestConfig{Timeout: 10 * time.Second, FailOnTimeout: true})
	require.NoError(t, err)

	defer metrics.Body.Close()

	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, metrics.StatusCode)
	assert.True(t, strings.Contains(string(body), `acl_decisions_total{decision="allow"}`))
}
