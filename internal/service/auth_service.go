package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/session_service/internal/models"
	"github.com/Skotchmaster/session_service/internal/repo"
	"github.com/Skotchmaster/session_service/pkg/hash"
	"github.com/Skotchmaster/session_service/pkg/logging"
)

func (t *TokenService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return nil, ErrInternal
	}

	user := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: pwHash,
		Role:         "user",
		TokenVersion: 0,
	}

	if err := t.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_failed", "reason", "user_exists")
			return nil, ErrUserExists
		}
		l.Error("register_failed", "reason", "db_error", "error", err)
		return nil, ErrInternal
	}

	return &user, nil
}

func (t *TokenService) Login(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := t.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("login_failed", "reason", "invalid email or password")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "reason", "db_error", "error", err)
		return nil, ErrInternal
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "invalid email or password")
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Logout revokes every session of the user referenced by a valid refresh
// token. An invalid or missing token is not an error: cookies get cleared
// either way and the version counter stays put.
func (t *TokenService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if refreshToken == "" {
		return nil
	}

	claims, err := t.VerifyRefreshToken(refreshToken)
	if err != nil {
		l.Warn("logout_skipped_revocation", "reason", "invalid_refresh_token")
		return nil
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil
	}

	if err := t.RevokeAll(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil
		}
		l.Error("logout_failed", "reason", "cannot increment token version", "error", err)
		return ErrInternal
	}

	return nil
}
