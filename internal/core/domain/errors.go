package domain

import "errors"

// Closed error taxonomy for the account service. Handlers never invent
// status codes: the API error handler maps each sentinel exactly once.
var (
	// Validation (400)
	ErrMissingFields = errors.New("all fields are required")
	ErrPhoneRequired = errors.New("phone number is required")
	ErrResetToken    = errors.New("invalid or expired token")

	// Conflict (400, matching the original wire contract)
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")

	// Not found (404)
	ErrAccountNotFound = errors.New("user not found")

	// Authentication (401)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("authentication required")
	ErrTokenRejected      = errors.New("invalid token or token expired")

	// Authorization (403)
	ErrForbidden = errors.New("access forbidden")

	// Upstream (500): wrap with the provider's message folded in, e.g.
	// fmt.Errorf("%w: provision user: status 502", ErrUpstream).
	ErrUpstream = errors.New("identity provider error")
)
