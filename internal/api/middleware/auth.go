package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/identitylab/account-service/internal/core/domain"
	"github.com/identitylab/account-service/internal/core/ports"
)

// Context keys set by Authenticate and read by handlers.
const (
	AccountKey = "account"
	TokenKey   = "token"
)

// Authenticate verifies a presented bearer token through the authenticator
// and injects the resolved account into the request context.
//
// A missing or non-bearer Authorization header is not a failure: the
// request continues without a principal and route-level guards decide
// whether that is acceptable. Only a presented-but-rejected token stops the
// request here.
func Authenticate(auth ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return next(c)
			}

			account, err := auth.Authenticate(c.Request().Context(), parts[1])
			if err != nil {
				return err
			}

			c.Set(AccountKey, account)
			c.Set(TokenKey, parts[1])
			return next(c)
		}
	}
}

// RequireAccount rejects requests that carry no authenticated principal.
func RequireAccount() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(AccountKey).(*domain.Account); !ok {
				return domain.ErrNotAuthenticated
			}
			return next(c)
		}
	}
}

// RequireSuperuser rejects authenticated principals without the superuser
// flag. Must run after RequireAccount.
func RequireSuperuser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, ok := c.Get(AccountKey).(*domain.Account)
			if !ok {
				return domain.ErrNotAuthenticated
			}
			if !account.Superuser {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
