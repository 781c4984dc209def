package ports

import (
	"context"

	"github.com/identitylab/account-service/internal/core/domain"
)

// AccountRepository defines the persistence interface for accounts and
// their embedded profiles. Lookup misses return domain.ErrAccountNotFound;
// unique-index violations on create return domain.ErrUsernameExists or
// domain.ErrEmailExists.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)

	// Delete removes the account and, by embedding, its profile. Used to
	// roll back a local record when remote provisioning fails.
	Delete(ctx context.Context, username string) error

	SetProviderID(ctx context.Context, username, providerID string) error
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error

	// ToggleMFA flips the MFA flag server-side in a single atomic update
	// and returns the resulting value.
	ToggleMFA(ctx context.Context, username string) (bool, error)
	SetPhoneNumber(ctx context.Context, username, phone string) error
}
