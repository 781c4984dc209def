package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identitylab/account-service/internal/core/ports"
)

// AccountHandler exposes the account lifecycle: register, login, logout and
// the password-reset flow.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Register creates a new account locally and on the identity provider.
//
// @Summary      Register a new user
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.Register(c.Request().Context(), req.Username, req.Email, req.Password); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: "User created successfully"})
}

// Login exchanges credentials for a token pair issued by the identity provider.
//
// @Summary      Login
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout terminates the local session. No remote revocation is performed.
//
// @Summary      Logout
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /logout [post]
func (h *AccountHandler) Logout(c echo.Context) error {
	account, err := ctxAccount(c)
	if err != nil {
		return err
	}

	if err := h.service.Logout(c.Request().Context(), account.Username); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Successfully logged out"})
}

// ForgotPassword issues a single-use reset token and mails a reset link.
//
// @Summary      Request a password reset
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /forgot-password [post]
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password reset email sent"})
}

// ResetPassword consumes a reset token and updates the stored password.
//
// @Summary      Reset password with a token
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Email, token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /reset-password [post]
func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.ResetPassword(c.Request().Context(), req.Email, req.Token, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password reset successful"})
}
