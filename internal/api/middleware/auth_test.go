package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/identitylab/account-service/internal/core/domain"
)

type stubAuthenticator struct {
	account *domain.Account
	err     error
	calls   int
	token   string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.Account, error) {
	s.calls++
	s.token = token
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func runMiddleware(mw echo.MiddlewareFunc, req *http.Request, handler echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(handler)(c)
	return rec, err
}

func TestAuthenticate_NoHeaderFallsThrough(t *testing.T) {
	auth := &stubAuthenticator{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := runMiddleware(Authenticate(auth), req, func(c echo.Context) error {
		if c.Get(AccountKey) != nil {
			t.Fatal("no principal expected without a header")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth.calls != 0 {
		t.Fatalf("authenticator must not be called, got %d calls", auth.calls)
	}
}

func TestAuthenticate_NonBearerFallsThrough(t *testing.T) {
	auth := &stubAuthenticator{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic YWxpY2U6c2VjcmV0")

	_, err := runMiddleware(Authenticate(auth), req, func(c echo.Context) error { return nil })

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth.calls != 0 {
		t.Fatalf("authenticator must not be called for non-bearer schemes, got %d calls", auth.calls)
	}
}

func TestAuthenticate_InjectsPrincipal(t *testing.T) {
	account := &domain.Account{Username: "alice"}
	auth := &stubAuthenticator{account: account}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-1")

	var seen *domain.Account
	var seenToken string
	_, err := runMiddleware(Authenticate(auth), req, func(c echo.Context) error {
		seen, _ = c.Get(AccountKey).(*domain.Account)
		seenToken, _ = c.Get(TokenKey).(string)
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != account {
		t.Fatal("principal not injected into context")
	}
	if seenToken != "tok-1" || auth.token != "tok-1" {
		t.Fatalf("token not propagated, got %q / %q", seenToken, auth.token)
	}
}

func TestAuthenticate_RejectedTokenStopsRequest(t *testing.T) {
	auth := &stubAuthenticator{err: domain.ErrNotAuthenticated}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")

	handlerRan := false
	_, err := runMiddleware(Authenticate(auth), req, func(c echo.Context) error {
		handlerRan = true
		return nil
	})

	if err != domain.ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if handlerRan {
		t.Fatal("handler must not run for a rejected token")
	}
}

func TestRequireAccount(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := runMiddleware(RequireAccount(), req, func(c echo.Context) error { return nil })
	if err != domain.ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(AccountKey, &domain.Account{Username: "alice"})
	if err := RequireAccount()(func(c echo.Context) error { return nil })(c); err != nil {
		t.Fatalf("expected pass-through with principal, got %v", err)
	}
}

func TestRequireSuperuser(t *testing.T) {
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(AccountKey, &domain.Account{Username: "alice"})
	err := RequireSuperuser()(func(c echo.Context) error { return nil })(c)
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for a regular account, got %v", err)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(AccountKey, &domain.Account{Username: "root", Superuser: true})
	if err := RequireSuperuser()(func(c echo.Context) error { return nil })(c); err != nil {
		t.Fatalf("expected pass-through for a superuser, got %v", err)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	err = RequireSuperuser()(func(c echo.Context) error { return nil })(c)
	if err != domain.ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated without a principal, got %v", err)
	}
}
