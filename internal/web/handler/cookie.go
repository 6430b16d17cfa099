package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/web/session"
)

// SetCookie sets an HTTP-only cookie that lives maxAge seconds. Dev mode allows plain HTTP.
func SetCookie(c fiber.Ctx, cfg *config.Config, name, value string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     RootPath,
		Domain:   cfg.Webserver.Domain,
		MaxAge:   maxAge,
		Secure:   !cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// SetSessionCookie stores the session id.
func SetSessionCookie(c fiber.Ctx, cfg *config.Config, sessions *session.Manager, id string) {
	SetCookie(c, cfg, session.CookieName, id, int(sessions.Expiry().Seconds()))
}

// ClearCookie expires cookie name.
func ClearCookie(c fiber.Ctx, cfg *config.Config, name string) {
	SetCookie(c, cfg, name, "", -1)
}
