package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/session_service/internal/service"
	"github.com/Skotchmaster/session_service/pkg/logging"
	"github.com/Skotchmaster/session_service/pkg/tokens"
)

// RouteGuard gates protected path prefixes on the access cookie. When the
// access token is missing or expired but a refresh cookie is present, the
// guard rotates the pair inline instead of bouncing the request; the
// client-side proactive refresh remains the primary defense, this is the
// last-resort gate.
type RouteGuard struct {
	Svc *service.TokenService

	ProtectedPrefixes []string
	PublicPaths       []string
	SignInPath        string
}

func NewRouteGuard(svc *service.TokenService) *RouteGuard {
	return &RouteGuard{
		Svc:               svc,
		ProtectedPrefixes: []string{"/dashboard"},
		PublicPaths:       []string{"/", "/login", "/register"},
		SignInPath:        "/login",
	}
}

func (g *RouteGuard) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path

		if g.isPublic(path) || !g.isProtected(path) {
			return next(c)
		}

		l := logging.FromContext(c.Request().Context()).With("guard", path)

		accessCookie, accessErr := c.Cookie(service.AccessCookieName)
		refreshCookie, refreshErr := c.Cookie(service.RefreshCookieName)

		if accessErr != nil && refreshErr != nil {
			return g.deny(c)
		}

		if accessErr == nil && accessCookie.Value != "" {
			claims, err := g.Svc.VerifyAccessToken(accessCookie.Value)
			if err == nil {
				setUserContext(c, claims)
				return next(c)
			}
		}

		if refreshErr != nil || refreshCookie.Value == "" {
			return g.deny(c)
		}

		pair, user, err := g.Svc.Refresh(c.Request().Context(), refreshCookie.Value)
		if err != nil {
			l.Warn("guard_refresh_failed", "error", err)
			return g.deny(c)
		}

		g.Svc.SetTokenCookies(c, pair)
		c.Set("user_id", user.ID.String())
		c.Set("role", user.Role)
		return next(c)
	}
}

func (g *RouteGuard) isPublic(path string) bool {
	for _, p := range g.PublicPaths {
		if p == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (g *RouteGuard) isProtected(path string) bool {
	for _, p := range g.ProtectedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (g *RouteGuard) deny(c echo.Context) error {
	g.Svc.ClearTokenCookies(c)
	return c.Redirect(http.StatusFound, g.SignInPath)
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set("user_id", claims.Subject)
	c.Set("role", claims.Role)
}
