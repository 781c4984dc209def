package ports

import (
	"context"
	"time"
)

// ResetTokenStore holds at most one live password-reset token per email.
// Issue overwrites any previous token for the same email. Consume deletes
// the stored token only when the presented value matches; a mismatch or a
// missing token returns domain.ErrResetToken without mutating state.
type ResetTokenStore interface {
	Issue(ctx context.Context, email, token string, ttl time.Duration) error
	Consume(ctx context.Context, email, token string) error
}
