package ports

import (
	"context"

	"github.com/identitylab/account-service/internal/core/domain"
)

type AccountService interface {
	Register(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, username, password string) (*domain.TokenPair, error)
	Logout(ctx context.Context, username string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, newPassword string) error
}

type ProfileService interface {
	Get(ctx context.Context, username string) (*domain.Account, error)
	ToggleMFA(ctx context.Context, username string) (bool, error)
	UpdatePhone(ctx context.Context, username, phone string) (string, error)
}

// Authenticator resolves a bearer token into a local account, creating the
// mirror record on first sight. Every failure is folded into
// domain.ErrNotAuthenticated so callers cannot distinguish causes.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
}
