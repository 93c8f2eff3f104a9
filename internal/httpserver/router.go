package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/session_service/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Guard       *middleware.RouteGuard
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	// Edge-layer gate: the guard carries its own path matcher, so it is
	// installed globally rather than per group.
	e.Use(d.Guard.Middleware)

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.LogOut)
	auth.GET("/me", d.AuthHandler.Me)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.GET("/cookie-status", d.AuthHandler.CookieStatus)

	dashboard := e.Group("/dashboard")
	dashboard.GET("", Dashboard)
	dashboard.GET("/*", Dashboard)
}

// Dashboard is the minimal protected surface behind the route guard.
func Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
	})
}
