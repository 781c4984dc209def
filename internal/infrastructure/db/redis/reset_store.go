package redis

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/identitylab/account-service/internal/core/domain"
)

// ResetTokenStore holds password-reset tokens in Redis, one key per email.
// Key format: pwreset:<email>
//
// Issuing overwrites any previous token for the email, so at most one token
// is ever live per email. Tokens expire after the TTL given at issue time.
type ResetTokenStore struct {
	client *redis.Client
}

func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

// Issue stores the token for the email with the given TTL, replacing any
// previously issued token.
func (s *ResetTokenStore) Issue(ctx context.Context, email, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(email), token, ttl).Err(); err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	return nil
}

// Consume deletes the stored token when the presented value matches it.
// An absent key or a mismatch returns ErrResetToken and leaves the stored
// state untouched, so a wrong guess does not burn the real token.
func (s *ResetTokenStore) Consume(ctx context.Context, email, token string) error {
	stored, err := s.client.Get(ctx, s.key(email)).Result()
	if err == redis.Nil {
		return domain.ErrResetToken
	}
	if err != nil {
		return fmt.Errorf("read reset token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return domain.ErrResetToken
	}

	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	return nil
}

func (s *ResetTokenStore) key(email string) string {
	return "pwreset:" + email
}
