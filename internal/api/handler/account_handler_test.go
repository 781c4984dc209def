package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/identitylab/account-service/internal/api"
	"github.com/identitylab/account-service/internal/api/handler"
	"github.com/identitylab/account-service/internal/api/middleware"
	"github.com/identitylab/account-service/internal/core/domain"
)

type stubAccountService struct {
	registerFn func(ctx context.Context, username, email, password string) error
	loginFn    func(ctx context.Context, username, password string) (*domain.TokenPair, error)
	forgotFn   func(ctx context.Context, email string) error
	resetFn    func(ctx context.Context, email, token, newPassword string) error
	logoutFn   func(ctx context.Context, username string) error
}

func (s *stubAccountService) Register(ctx context.Context, username, email, password string) error {
	return s.registerFn(ctx, username, email, password)
}

func (s *stubAccountService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAccountService) Logout(ctx context.Context, username string) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, username)
}

func (s *stubAccountService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAccountService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	return s.resetFn(ctx, email, token, newPassword)
}

// newTestEcho wires the same validator and error handler the router installs,
// so assertions run against the real wire contract.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zerolog.Nop())
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func wireError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json body %q: %v", rec.Body.String(), err)
	}
	return resp["error"]
}

func TestAccountHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		registerFn: func(_ context.Context, username, email, password string) error {
			if username != "alice" || email != "alice@example.com" || password != "s3cret" {
				t.Fatalf("unexpected args: %s %s %s", username, email, password)
			}
			return nil
		},
	}
	e.POST("/register", handler.NewAccountHandler(stub).Register)

	rec := postJSON(e, "/register", `{"username":"alice","email":"alice@example.com","password":"s3cret"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "User created successfully" {
		t.Fatalf("unexpected message: %q", resp["message"])
	}
}

func TestAccountHandler_Register_MissingField(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		registerFn: func(context.Context, string, string, string) error {
			t.Fatal("service must not be called for invalid payloads")
			return nil
		},
	}
	e.POST("/register", handler.NewAccountHandler(stub).Register)

	rec := postJSON(e, "/register", `{"username":"alice","email":"alice@example.com"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Register_DuplicateUsername(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		registerFn: func(context.Context, string, string, string) error {
			return domain.ErrUsernameExists
		},
	}
	e.POST("/register", handler.NewAccountHandler(stub).Register)

	rec := postJSON(e, "/register", `{"username":"alice","email":"alice@example.com","password":"s3cret"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := wireError(t, rec); got != "Username already exists" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestAccountHandler_Register_DuplicateEmail(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		registerFn: func(context.Context, string, string, string) error {
			return domain.ErrEmailExists
		},
	}
	e.POST("/register", handler.NewAccountHandler(stub).Register)

	rec := postJSON(e, "/register", `{"username":"bob","email":"alice@example.com","password":"s3cret"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := wireError(t, rec); got != "Email already exists" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestAccountHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		loginFn: func(context.Context, string, string) (*domain.TokenPair, error) {
			return &domain.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil
		},
	}
	e.POST("/login", handler.NewAccountHandler(stub).Login)

	rec := postJSON(e, "/login", `{"username":"alice","password":"s3cret"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["token"] != "access-1" || resp["refresh_token"] != "refresh-1" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAccountHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		loginFn: func(context.Context, string, string) (*domain.TokenPair, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	e.POST("/login", handler.NewAccountHandler(stub).Login)

	rec := postJSON(e, "/login", `{"username":"alice","password":"wrong"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := wireError(t, rec); got != "Invalid credentials" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestAccountHandler_Logout(t *testing.T) {
	e := newTestEcho()
	h := handler.NewAccountHandler(&stubAccountService{})
	e.POST("/logout", h.Logout, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.AccountKey, &domain.Account{Username: "alice"})
			return next(c)
		}
	})

	rec := postJSON(e, "/logout", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Successfully logged out") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAccountHandler_Logout_NoPrincipal(t *testing.T) {
	e := newTestEcho()
	e.POST("/logout", handler.NewAccountHandler(&stubAccountService{}).Logout)

	rec := postJSON(e, "/logout", "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAccountHandler_ForgotPassword_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		forgotFn: func(_ context.Context, email string) error {
			if email != "alice@example.com" {
				t.Fatalf("unexpected email: %s", email)
			}
			return nil
		},
	}
	e.POST("/forgot-password", handler.NewAccountHandler(stub).ForgotPassword)

	rec := postJSON(e, "/forgot-password", `{"email":"alice@example.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Password reset email sent") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAccountHandler_ForgotPassword_UnknownEmail(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		forgotFn: func(context.Context, string) error { return domain.ErrAccountNotFound },
	}
	e.POST("/forgot-password", handler.NewAccountHandler(stub).ForgotPassword)

	rec := postJSON(e, "/forgot-password", `{"email":"ghost@example.com"}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := wireError(t, rec); got != "User not found" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestAccountHandler_ResetPassword_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		resetFn: func(_ context.Context, email, token, newPassword string) error {
			if email != "alice@example.com" || token != "tok123" || newPassword != "n3wpass" {
				t.Fatalf("unexpected args: %s %s %s", email, token, newPassword)
			}
			return nil
		},
	}
	e.POST("/reset-password", handler.NewAccountHandler(stub).ResetPassword)

	rec := postJSON(e, "/reset-password", `{"email":"alice@example.com","token":"tok123","new_password":"n3wpass"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Password reset successful") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAccountHandler_ResetPassword_InvalidToken(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		resetFn: func(context.Context, string, string, string) error { return domain.ErrResetToken },
	}
	e.POST("/reset-password", handler.NewAccountHandler(stub).ResetPassword)

	rec := postJSON(e, "/reset-password", `{"email":"alice@example.com","token":"zzz","new_password":"n3wpass"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := wireError(t, rec); got != "Invalid or expired token" {
		t.Fatalf("unexpected error message: %q", got)
	}
}
