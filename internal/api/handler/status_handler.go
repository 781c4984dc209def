package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identitylab/account-service/internal/core/ports"
)

// StatusHandler exposes the provider-reachability and admin-check probes.
type StatusHandler struct {
	idp ports.IdentityProvider
}

func NewStatusHandler(idp ports.IdentityProvider) *StatusHandler {
	return &StatusHandler{idp: idp}
}

type keycloakStatusResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type adminCheckResponse struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// KeycloakCheck reports whether the identity provider is reachable.
//
// @Summary      Identity provider reachability check
// @Tags         status
// @Produce      json
// @Success      200  {object}  keycloakStatusResponse
// @Failure      503  {object}  keycloakStatusResponse
// @Router       /keycloak-check [get]
func (h *StatusHandler) KeycloakCheck(c echo.Context) error {
	if err := h.idp.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, keycloakStatusResponse{
			Status: "unreachable",
			Detail: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, keycloakStatusResponse{Status: "connected"})
}

// AdminCheck confirms the caller holds the superuser flag. The superuser
// guard runs as route middleware; reaching the handler means the check
// passed.
//
// @Summary      Superuser check
// @Tags         status
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  adminCheckResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin-check [get]
func (h *StatusHandler) AdminCheck(c echo.Context) error {
	account, err := ctxAccount(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminCheckResponse{
		Username: account.Username,
		IsAdmin:  account.Superuser,
	})
}
