package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/session_service/internal/models"
	"github.com/Skotchmaster/session_service/internal/repo"
	"github.com/Skotchmaster/session_service/pkg/logging"
	"github.com/Skotchmaster/session_service/pkg/tokens"
)

type TokenService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte

	// Secure switches the cookie policy to production attributes
	// (Secure, SameSite=None).
	Secure bool
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (t *TokenService) GenerateTokens(user *models.User) (*TokenPair, error) {
	accessExp := time.Now().Add(tokens.AccessTokenTTL)
	accessToken, err := tokens.SignAccessToken(user.ID.String(), user.Email, user.Role, accessExp, t.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshExp := time.Now().Add(tokens.RefreshTokenTTL)
	refreshToken, err := tokens.SignRefreshToken(user.ID.String(), user.TokenVersion, refreshExp, t.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (t *TokenService) VerifyAccessToken(tokenStr string) (*tokens.AccessClaims, error) {
	claims, err := tokens.AccessClaimsFromToken(tokenStr, t.JWTSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenService) VerifyRefreshToken(tokenStr string) (*tokens.RefreshClaims, error) {
	claims, err := tokens.RefreshClaimsFromToken(tokenStr, t.RefreshSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh validates the presented refresh token against the user's
// current token version and rotates both tokens. A missing user or a
// version mismatch means the token was revoked, even if it is unexpired
// and correctly signed.
func (t *TokenService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *models.User, error) {
	l := logging.FromContext(ctx).With("svc", "token.refresh")

	claims, err := t.VerifyRefreshToken(refreshToken)
	if err != nil {
		l.Warn("refresh_rejected", "reason", "invalid_refresh_token")
		return nil, nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		l.Warn("refresh_rejected", "reason", "bad_subject")
		return nil, nil, ErrInvalidToken
	}

	user, err := t.Repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("refresh_rejected", "reason", "user_gone")
			return nil, nil, ErrRevokedToken
		}
		l.Error("refresh_failed", "error", err)
		return nil, nil, ErrInternal
	}

	if claims.Version != user.TokenVersion {
		l.Warn("refresh_rejected", "reason", "version_mismatch",
			"token_version", claims.Version, "current_version", user.TokenVersion)
		return nil, nil, ErrRevokedToken
	}

	pair, err := t.GenerateTokens(user)
	if err != nil {
		l.Error("refresh_failed", "error", err)
		return nil, nil, ErrInternal
	}

	return pair, user, nil
}

// RevokeAll bumps the user's token version, killing every outstanding
// refresh token at once. Access tokens die on their own within 15 minutes.
func (t *TokenService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return t.Repo.IncrementTokenVersion(ctx, userID)
}
