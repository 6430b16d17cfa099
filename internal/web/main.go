// Package web serves the JSON admin API.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/auth"
	fiberlog "github.com/portcullis-admin/portcullis/internal/logger/adapter/fiber"
	"github.com/portcullis-admin/portcullis/internal/web/handler"
	"github.com/portcullis-admin/portcullis/internal/web/handler/access"
	"github.com/portcullis-admin/portcullis/internal/web/handler/admin/grant"
	"github.com/portcullis-admin/portcullis/internal/web/handler/admin/group"
	"github.com/portcullis-admin/portcullis/internal/web/handler/admin/policy"
	"github.com/portcullis-admin/portcullis/internal/web/handler/admin/rule"
	"github.com/portcullis-admin/portcullis/internal/web/handler/admin/user"
	"github.com/portcullis-admin/portcullis/internal/web/handler/auth/oidc"
	"github.com/portcullis-admin/portcullis/internal/web/handler/home"
	"github.com/portcullis-admin/portcullis/internal/web/handler/login"
	"github.com/portcullis-admin/portcullis/internal/web/handler/logout"
)

const (
	// CheckAlivePath answers 200 while the service accepts traffic.
	CheckAlivePath = "/checkalive"
	// MetricsPath serves the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	deps         *handler.Deps
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	log.Info().Str("addr", addr).Msg("http server started")

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.deps.Cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.deps.Cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// CheckAlive answers 503 once a shutdown started.
func (s *Service) CheckAlive(c fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// New creates the web service with every handler registered.
func New(deps *handler.Deps) (*Service, error) {
	if err := deps.Check(); err != nil {
		return nil, err
	}

	cfg := deps.Cfg

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192, //nolint:mnd
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Immutable:      true,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
		UserLocal:     auth.UsernameLocal,
	}))

	service := &Service{
		App:          app,
		deps:         deps,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	handlers := []handler.Service{
		login.New(deps),
		logout.New(deps),
		home.New(deps),
		access.New(deps),
		group.New(deps),
		grant.New(deps),
		rule.New(deps),
		user.New(deps),
		policy.New(deps),
		oidc.New(deps),
	}

	for _, h := range handlers {
		if err := h.Init(app); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return service, nil
}
