package ports

import (
	"context"

	"github.com/identitylab/account-service/internal/core/domain"
)

// IdentityProvider is the outbound contract toward the OpenID-Connect-like
// provider. None of the calls retry or cache; every call is bounded by the
// client's configured timeout and the request context.
type IdentityProvider interface {
	// VerifyToken introspects a bearer token against the provider's
	// userinfo endpoint. Any non-success response maps uniformly to
	// domain.ErrTokenRejected.
	VerifyToken(ctx context.Context, token string) (*domain.UserInfo, error)

	// ExchangePassword performs the resource-owner password grant. A 401
	// maps to domain.ErrInvalidCredentials; any other non-200 wraps
	// domain.ErrUpstream.
	ExchangePassword(ctx context.Context, username, password string) (*domain.TokenPair, error)

	// ProvisionAccount creates the user on the provider (admin token grant,
	// create, lookup by username) and returns its assigned id. Any step
	// failing, or an empty lookup, wraps domain.ErrUpstream.
	ProvisionAccount(ctx context.Context, username, email, password string) (string, error)

	// Ping reports whether the provider is reachable.
	Ping(ctx context.Context) error
}
