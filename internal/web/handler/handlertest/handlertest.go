// Package handlertest builds a handler environment on a throwaway database.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/db/controller/policy"
	"github.com/portcullis-admin/portcullis/internal/db/dbtest"
	"github.com/portcullis-admin/portcullis/internal/db/models"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
	"github.com/portcullis-admin/portcullis/internal/web/session"
)

// argon2id hashing on login is slow under the race detector
const testTimeout = 10 * time.Second

// Password is the password of every user created by the environment.
const Password = "correct horse" //nolint:gosec

// Env is a handler environment. Admin is an admin, Alice a regular user of the default group Users.
type Env struct {
	Deps  *handler.Deps
	App   *fiber.App
	Users *models.Group
	Admin *models.User
	Alice *models.User
}

// Config returns the configuration used by New.
func Config() *config.Config {
	return &config.Config{
		DevMode: true,
		Title:   "portcullis test",
		Webserver: config.Webserver{
			Port:    8080,
			URL:     "http://localhost:8080",
			Session: config.Session{ExpiryTime: time.Hour, Backend: config.SessionBackendDB},
		},
		ACL: config.ACL{DefaultRoute: "/welcome", MaxLoginFaults: 3},
	}
}

// New creates the environment with the service catalog installed.
func New(t *testing.T) *Env {
	t.Helper()

	db := dbtest.New(t)
	require.NoError(t, db.Create(&models.Language{Code: "en", Name: "English"}).Error)

	cfg := Config()
	validate := validator.New()
	users := acl.NewUsers(db, validate)
	engine := acl.NewEngine(db)
	sessions := session.NewManager(session.NewDBStorage(db), cfg.Webserver.Session.ExpiryTime)

	deps := &handler.Deps{
		Cfg:      cfg,
		DB:       db,
		Validate: validate,
		Registry: acl.NewRegistry(db),
		Groups:   acl.NewGroups(db, validate),
		Grants:   acl.NewGrants(db),
		Users:    users,
		Engine:   engine,
		Sessions: sessions,
		Guard:    auth.NewGuard(sessions, users, engine),
		Local:    auth.NewLocalProvider(db, users, policy.FromConfig(cfg.ACL)),
	}

	require.NoError(t, auth.InstallCatalog(deps.Registry))

	usersGroup, err := deps.Groups.Create("Users", true)
	require.NoError(t, err)

	admin, err := users.Create(acl.NewUser{Username: "admin", Password: Password, Admin: true})
	require.NoError(t, err)

	alice, err := users.Create(acl.NewUser{Username: "alice", Password: Password, Email: "alice@example.org"})
	require.NoError(t, err)

	return &Env{
		Deps:  deps,
		App:   fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler}),
		Users: usersGroup,
		Admin: admin,
		Alice: alice,
	}
}

// Register initializes services on the environment's app.
func (e *Env) Register(t *testing.T, services ...handler.Service) {
	t.Helper()

	for _, s := range services {
		require.NoError(t, s.Init(e.App))
	}
}

// Session starts a session for user and returns its id.
func (e *Env) Session(t *testing.T, user *models.User) string {
	t.Helper()

	id, err := e.Deps.Sessions.Create(session.Data{UserID: user.ID, Username: user.Username})
	require.NoError(t, err)

	return id
}

// Grant grants module/action to groupID.
func (e *Env) Grant(t *testing.T, groupID uint, module, action string) *models.Acl {
	t.Helper()

	m, err := e.Deps.Registry.Module(module)
	require.NoError(t, err)

	rule, err := e.Deps.Registry.FindByModuleAction(m.ID, action, false)
	require.NoError(t, err)

	grant, err := e.Deps.Grants.Grant(groupID, rule.ID)
	require.NoError(t, err)

	return grant
}

// Response is a recorded answer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON decodes the body into out.
func (r Response) JSON(t *testing.T, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, out), string(r.Body))
}

// Errors decodes an error body.
func (r Response) Errors(t *testing.T) []string {
	t.Helper()

	var body handler.ErrorResponse
	r.JSON(t, &body)

	return body.Errors
}

// Cookie returns the value of the cookie name set by the response.
func (r Response) Cookie(name string) (string, bool) {
	for _, c := range (&http.Response{Header: r.Header}).Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}

	return "", false
}

// Do sends a request with body encoded as JSON. sessionID may be empty.
func (e *Env) Do(t *testing.T, method, path string, body any, sessionID string) Response {
	t.Helper()

	var reader io.Reader = http.NoBody

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})
	}

	resp, err := e.App.Test(req, fiber.TestConfig{Timeout: testTimeout, FailOnTimeout: true})
	require.NoError(t, err)

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}
}
