package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/session_service/internal/mykafka"
	"github.com/Skotchmaster/session_service/internal/repo"
	"github.com/Skotchmaster/session_service/internal/service"
	"github.com/Skotchmaster/session_service/pkg/logging"
	"github.com/Skotchmaster/session_service/pkg/tokens"
)

type AuthHTTP struct {
	Svc      *service.TokenService
	Producer *mykafka.Producer
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}

	user, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, service.ErrUserExists):
			return echo.NewHTTPError(http.StatusConflict, "User already exists")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
		}
	}

	pair, err := h.Svc.GenerateTokens(user)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot create tokens", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	h.Svc.SetTokenCookies(c, pair)

	h.publish(c, "user_registered", user.ID.String(), echo.Map{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	l.Info("register_success", "status", 200)
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}

	user, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, service.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
		}
	}

	pair, err := h.Svc.GenerateTokens(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot create tokens", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	h.Svc.SetTokenCookies(c, pair)

	h.publish(c, "user_logged_in", user.ID.String(), echo.Map{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	l.Info("login_successful")
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var refreshToken string
	if ck, err := c.Cookie(service.RefreshCookieName); err == nil {
		refreshToken = ck.Value
	}

	if err := h.Svc.Logout(ctx, refreshToken); err != nil {
		h.Svc.ClearTokenCookies(c)
		l.Error("logout_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	h.Svc.ClearTokenCookies(c)

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_me")

	ck, err := c.Cookie(service.AccessCookieName)
	if err != nil || ck.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"user": nil})
	}

	claims, err := h.Svc.VerifyAccessToken(ck.Value)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"user": nil})
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"user": nil})
	}

	// The token may carry email/role but identity is always re-read from
	// the store, so role changes land immediately.
	user, err := h.Svc.Repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"user": nil})
		}
		l.Error("me_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	ck, err := c.Cookie(service.RefreshCookieName)
	if err != nil || ck.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.CodeNoRefreshToken})
	}

	pair, user, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		code := service.RefreshErrorCode(err)
		if code == service.CodeInternalError {
			l.Error("refresh_failed", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": code})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": code})
	}

	h.Svc.SetTokenCookies(c, pair)

	l.Info("refresh_successful")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user": echo.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *AuthHTTP) CookieStatus(c echo.Context) error {
	resp := echo.Map{
		"hasAuthToken":    false,
		"hasRefreshToken": false,
	}

	if ck, err := c.Cookie(service.AccessCookieName); err == nil && ck.Value != "" {
		resp["hasAuthToken"] = true
		// Expiry is informational, for client-side refresh scheduling.
		// Trust decisions never happen here.
		if claims, err := tokens.AccessClaimsFromToken(ck.Value, h.Svc.JWTSecret); err == nil && claims.ExpiresAt != nil {
			resp["authTokenExpiry"] = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
		}
	}
	if ck, err := c.Cookie(service.RefreshCookieName); err == nil && ck.Value != "" {
		resp["hasRefreshToken"] = true
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHTTP) publish(c echo.Context, topicKey, key string, event echo.Map) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(ctx).Warn("kafka_publish_error", "event", topicKey, "error", err)
	}
}
