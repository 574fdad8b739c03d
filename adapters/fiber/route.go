// Package fiber wires the sign-on exchange onto a gofiber v3 application.
package fiber

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/arkeny/signon"
)

var (
	ErrTransportFuncRequired = errors.New("transport func is required")
	ErrRelocateFuncRequired  = errors.New("relocate func is required")
)

const defaultPath = "/signon"

// RouteConfig binds the exchange route to the host application.
type RouteConfig struct {
	// Path of the exchange endpoint. Defaults to "/signon".
	Path string

	// Transport returns the session transport for the current request's
	// client. Hosts adapt their session middleware here.
	Transport func(c fiber.Ctx) signon.SessionTransport

	// Relocate picks the post-login destination, typically a redirect.
	Relocate func(c fiber.Ctx, account *signon.Account) error
}

type Adapter struct {
	app *fiber.App
}

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

// RegisterRoutes installs the sign-on exchange endpoint for GET and HEAD.
// Both methods run the full exchange; only GET consumes the token, so a
// browser's HEAD probe ahead of the real GET does not burn it.
func (a *Adapter) RegisterRoutes(s *signon.Signon, cfg RouteConfig) error {
	if cfg.Transport == nil {
		return ErrTransportFuncRequired
	}
	if cfg.Relocate == nil {
		return ErrRelocateFuncRequired
	}

	path := cfg.Path
	if path == "" {
		path = defaultPath
	}

	a.app.Add([]string{fiber.MethodGet, fiber.MethodHead}, path, handleSignOn(s, cfg))
	return nil
}
