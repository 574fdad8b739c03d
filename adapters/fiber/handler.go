package fiber

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arkeny/signon"
)

// handleSignOn returns the handler for the sign-on exchange endpoint.
func handleSignOn(s *signon.Signon, cfg RouteConfig) fiber.Handler {
	return func(c fiber.Ctx) error {
		auth := signon.NewAuthenticator(signon.AuthenticatorConfig{
			Accounts:  s.Accounts,
			Passwords: s.Passwords,
			Transport: cfg.Transport(c),
			Cookies:   &cookieSink{c: c},
			Instance:  s.Instance,
			Logger:    s.Logger,
			Now:       s.Now,
		})

		req := signon.Request{
			Ident:  c.Query("id"),
			Key:    c.Query("key"),
			Token:  c.Query("token"),
			Method: c.Method(),
		}

		account, err := s.Exchange.SignOn(c.Context(), req, auth)
		if err != nil {
			// One status and one body for every stage failure; which stage
			// failed stays in the server logs.
			return c.Status(http.StatusForbidden).JSON(map[string]string{
				"error": signon.ErrSignOnFailed.Error(),
			})
		}

		return cfg.Relocate(c, account)
	}
}

// cookieSink adapts the fiber response cookie jar to the CookieSink port.
type cookieSink struct {
	c fiber.Ctx
}

var _ signon.CookieSink = (*cookieSink)(nil)

func (s *cookieSink) Set(name, value string) {
	s.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *cookieSink) Remove(name string) {
	s.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
