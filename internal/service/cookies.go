package service

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/session_service/pkg/tokens"
)

const (
	AccessCookieName  = "auth_token"
	RefreshCookieName = "refresh_token"
)

func (t *TokenService) newCookie(name, value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteStrictMode
	if t.Secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: sameSite,
	}
}

// SetTokenCookies attaches both tokens to the outgoing response with the
// lifetimes they were signed with.
func (t *TokenService) SetTokenCookies(c echo.Context, pair *TokenPair) {
	c.SetCookie(t.newCookie(AccessCookieName, pair.AccessToken, pair.AccessExp, int(tokens.AccessTokenTTL.Seconds())))
	c.SetCookie(t.newCookie(RefreshCookieName, pair.RefreshToken, pair.RefreshExp, int(tokens.RefreshTokenTTL.Seconds())))
}

func (t *TokenService) ClearTokenCookies(c echo.Context) {
	c.SetCookie(t.newCookie(AccessCookieName, "", time.Unix(0, 0), -1))
	c.SetCookie(t.newCookie(RefreshCookieName, "", time.Unix(0, 0), -1))
}
