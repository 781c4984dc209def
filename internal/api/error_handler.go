package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/identitylab/account-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps each domain sentinel to its HTTP status code exactly once.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// The closed taxonomy. Wire messages keep the original casing the
	// frontend matches on.
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, "All fields are required"
	case errors.Is(err, domain.ErrPhoneRequired):
		return http.StatusBadRequest, "Phone number is required"
	case errors.Is(err, domain.ErrResetToken):
		return http.StatusBadRequest, "Invalid or expired token"
	case errors.Is(err, domain.ErrUsernameExists):
		return http.StatusBadRequest, "Username already exists"
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusBadRequest, "Email already exists"
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrTokenRejected), errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "Invalid token or token expired"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access forbidden"
	case errors.Is(err, domain.ErrUpstream):
		// Provider message folded in; the provider is an operational
		// dependency, not a secret.
		return http.StatusInternalServerError, err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
