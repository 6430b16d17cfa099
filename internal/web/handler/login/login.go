package login

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/auth"
	"github.com/portcullis-admin/portcullis/internal/db/models"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
	"github.com/portcullis-admin/portcullis/internal/web/handler/home"
	"github.com/portcullis-admin/portcullis/internal/web/session"
)

const (
	// Path is the login endpoint.
	Path = handler.APIPath + "/login"

	// MethodLocal authenticates against the local database.
	MethodLocal = "local"
	// MethodLDAP authenticates against the directory.
	MethodLDAP = "ldap"
)

// Request is the login body.
type Request struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"` //nolint:gosec
	// Method is local (default) or ldap.
	Method string `json:"method" validate:"omitempty,oneof=local ldap"`
}

// Response is the body of a successful login.
type Response struct {
	User acl.UserView `json:"user"`
	// Redirect is the landing page of the user.
	Redirect string `json:"redirect"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// New creates the handler.
func New(deps *handler.Deps) *Service {
	return &Service{deps: deps}
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App) error {
	if app == nil || s.deps.Check() != nil {
		return handler.ErrNilDeps
	}

	limit := s.deps.Cfg.Webserver.LoginRateLimit
	if limit <= 0 {
		app.Post(Path, s.Post)

		return nil
	}

	app.Post(Path, limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		LimitReached: func(_ fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many login attempts")
		},
	}), s.Post)

	return nil
}

// Post authenticates the user and starts a session.
func (s *Service) Post(c fiber.Ctx) error {
	var in Request
	if err := handler.Bind(c, s.deps.Validate, &in); err != nil {
		return err
	}

	user, err := s.authenticate(in)
	if err != nil {
		return s.refuse(c, in, err)
	}

	id, err := s.deps.Sessions.Create(session.Data{UserID: user.ID, Username: user.Username})
	if err != nil {
		return err //nolint:wrapcheck
	}

	handler.SetSessionCookie(c, s.deps.Cfg, s.deps.Sessions, id)
	c.Locals(auth.UsernameLocal, user.Username)

	log.Info().Uint64("user_id", user.ID).Str("source", string(user.AuthSource)).Msg("user logged in")

	// the session user is loaded with its group for the view
	full, err := s.deps.Users.Get(user.ID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(Response{User: acl.NewUserView(*full), Redirect: home.Landing(s.deps, full)})
}

func (s *Service) authenticate(in Request) (*models.User, error) {
	switch in.Method {
	case "", MethodLocal:
		return s.deps.Local.Authenticate(in.Username, in.Password) //nolint:wrapcheck
	case MethodLDAP:
		if s.deps.LDAP == nil {
			return nil, ErrLDAPAuthDisabled
		}

		return s.deps.LDAP.Authenticate(in.Username, in.Password) //nolint:wrapcheck
	default:
		return nil, ErrInvalidAuthMethod
	}
}

// refuse answers a failed login. Unknown users and wrong passwords share one message.
func (s *Service) refuse(c fiber.Ctx, in Request, err error) error {
	switch {
	case errors.Is(err, ErrLDAPAuthDisabled), errors.Is(err, ErrInvalidAuthMethod):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUserAccountDisabled), errors.Is(err, auth.ErrAccountLocked):
		log.Warn().Str("username", in.Username).Err(err).Msg("login refused")

		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case auth.IsCredentialError(err):
		log.Warn().Str("username", in.Username).Str("ip", c.IP()).Msg("invalid login")

		return fiber.NewError(fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
	default:
		return err
	}
}
