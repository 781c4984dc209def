package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/identitylab/account-service/internal/api/metrics"
	"github.com/identitylab/account-service/internal/core/domain"
	"github.com/identitylab/account-service/internal/core/ports"
)

// TokenAuthenticator resolves bearer tokens through live introspection
// against the identity provider, then resolves or creates the matching
// local account. The local record for a first-seen remote identity carries
// no password hash.
type TokenAuthenticator struct {
	idp    ports.IdentityProvider
	repo   ports.AccountRepository
	logger zerolog.Logger
}

func NewTokenAuthenticator(idp ports.IdentityProvider, repo ports.AccountRepository, logger zerolog.Logger) *TokenAuthenticator {
	return &TokenAuthenticator{idp: idp, repo: repo, logger: logger}
}

// Authenticate verifies the token and returns the resolved account. Every
// failure, provider or store, is folded into ErrNotAuthenticated: callers
// must not be able to tell a bad token from an unknown user.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	info, err := a.idp.VerifyToken(ctx, token)
	if err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}

	account, err := a.repo.FindByUsername(ctx, info.PreferredUsername)
	if errors.Is(err, domain.ErrAccountNotFound) {
		account, err = a.createMirror(ctx, info)
	}
	if err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}

	metrics.TokenVerificationsTotal.WithLabelValues("ok").Inc()
	return account, nil
}

func (a *TokenAuthenticator) createMirror(ctx context.Context, info *domain.UserInfo) (*domain.Account, error) {
	now := time.Now().UTC()
	account, err := a.repo.Create(ctx, &domain.Account{
		Username:  info.PreferredUsername,
		Email:     info.Email,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err == nil {
		a.logger.Info().Str("username", info.PreferredUsername).Msg("mirror account created from verified token")
		return account, nil
	}
	// Lost a race with a concurrent first request for the same identity.
	if errors.Is(err, domain.ErrUsernameExists) || errors.Is(err, domain.ErrEmailExists) {
		return a.repo.FindByUsername(ctx, info.PreferredUsername)
	}
	return nil, err
}
