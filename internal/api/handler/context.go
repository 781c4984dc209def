package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/identitylab/account-service/internal/api/middleware"
	"github.com/identitylab/account-service/internal/core/domain"
)

// ctxAccount extracts the principal injected by the Authenticate
// middleware. Its presence proves the route-level guard ran; its absence on
// a protected route is still rejected rather than dereferenced.
func ctxAccount(c echo.Context) (*domain.Account, error) {
	account, ok := c.Get(middleware.AccountKey).(*domain.Account)
	if !ok || account == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return account, nil
}
