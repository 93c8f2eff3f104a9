package service

import "errors"

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRevokedToken       = errors.New("token has been revoked")
	ErrNoRefreshToken     = errors.New("no refresh token provided")
	ErrInternal           = errors.New("internal error")
)

// Machine-readable codes returned by the refresh endpoint.
const (
	CodeNoRefreshToken      = "no_refresh_token"
	CodeInvalidRefreshToken = "invalid_refresh_token"
	CodeInvalidTokenVersion = "invalid_token_version"
	CodeInternalError       = "internal_error"
)

func RefreshErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoRefreshToken):
		return CodeNoRefreshToken
	case errors.Is(err, ErrRevokedToken):
		return CodeInvalidTokenVersion
	case errors.Is(err, ErrInvalidToken):
		return CodeInvalidRefreshToken
	default:
		return CodeInternalError
	}
}
