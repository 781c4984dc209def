package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identitylab/account-service/internal/core/domain"
	"github.com/identitylab/account-service/internal/core/ports"
)

// ProfileHandler exposes authenticated CRUD on the locally-owned profile
// fields.
type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get returns the authenticated user's profile.
//
// @Summary      Get the current user's profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	account, err := ctxAccount(c)
	if err != nil {
		return err
	}

	fresh, err := h.service.Get(c.Request().Context(), account.Username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toProfileResponse(fresh))
}

// ToggleMFA flips the MFA flag and returns the resulting value.
//
// @Summary      Toggle multi-factor authentication
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  mfaResponse
// @Failure      401  {object}  errorResponse
// @Router       /toggle-mfa [post]
func (h *ProfileHandler) ToggleMFA(c echo.Context) error {
	account, err := ctxAccount(c)
	if err != nil {
		return err
	}

	enabled, err := h.service.ToggleMFA(c.Request().Context(), account.Username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, mfaResponse{MFAEnabled: enabled})
}

// UpdatePhone stores a new phone number on the profile.
//
// @Summary      Update the profile phone number
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updatePhoneRequest  true  "New phone number"
// @Success      200   {object}  phoneResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /update-phone [post]
func (h *ProfileHandler) UpdatePhone(c echo.Context) error {
	account, err := ctxAccount(c)
	if err != nil {
		return err
	}

	var req updatePhoneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.PhoneNumber == "" {
		return domain.ErrPhoneRequired
	}

	phone, err := h.service.UpdatePhone(c.Request().Context(), account.Username, req.PhoneNumber)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, phoneResponse{PhoneNumber: phone})
}

func toProfileResponse(a *domain.Account) profileResponse {
	return profileResponse{
		Username:    a.Username,
		Email:       a.Email,
		MFAEnabled:  a.Profile.MFAEnabled,
		PhoneNumber: a.Profile.PhoneNumber,
	}
}
