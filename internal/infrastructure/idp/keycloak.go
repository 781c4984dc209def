// Package idp implements the outbound client for a Keycloak-shaped
// OpenID-Connect identity provider: token introspection via the userinfo
// endpoint, the resource-owner password grant, and administrative user
// provisioning. No call is retried or cached; every call carries a bounded
// timeout.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/identitylab/account-service/internal/api/metrics"
	"github.com/identitylab/account-service/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config captures the provider endpoints and the operational admin
// credentials used for provisioning.
type Config struct {
	BaseURL       string
	Realm         string
	ClientID      string
	ClientSecret  string
	AdminUsername string
	AdminPassword string
	Timeout       time.Duration
}

// Client talks to the identity provider over HTTP.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// NewClient builds a Client with an explicit request timeout. A default is
// applied when none is configured.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (c *Client) realmURL(path string) string {
	return fmt.Sprintf("%s/realms/%s%s", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Realm, path)
}

func (c *Client) adminURL(path string) string {
	return fmt.Sprintf("%s/admin/realms/%s%s", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Realm, path)
}

// VerifyToken introspects the bearer token against the userinfo endpoint.
// Every non-200 response collapses into ErrTokenRejected: network failure,
// malformed token and expiry are deliberately indistinguishable here.
func (c *Client) VerifyToken(ctx context.Context, token string) (*domain.UserInfo, error) {
	timer := prometheusTimer("verify_token")
	defer timer()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.realmURL("/protocol/openid-connect/userinfo"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrTokenRejected
	}

	var info domain.UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", domain.ErrTokenRejected, err)
	}
	if info.PreferredUsername == "" {
		return nil, fmt.Errorf("%w: userinfo missing preferred_username", domain.ErrTokenRejected)
	}
	return &info, nil
}

// ExchangePassword performs the resource-owner password grant.
func (c *Client) ExchangePassword(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	timer := prometheusTimer("exchange_password")
	defer timer()

	pair, status, err := c.passwordGrant(ctx, c.cfg.ClientID, c.cfg.ClientSecret, username, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	switch {
	case status == http.StatusOK:
		return pair, nil
	case status == http.StatusUnauthorized:
		return nil, domain.ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("%w: token endpoint returned status %d", domain.ErrUpstream, status)
	}
}

// ProvisionAccount creates the user on the provider and returns its
// assigned id: admin token grant, user creation, then lookup by username.
func (c *Client) ProvisionAccount(ctx context.Context, username, email, password string) (string, error) {
	timer := prometheusTimer("provision_account")
	defer timer()

	adminToken, status, err := c.passwordGrant(ctx, c.cfg.ClientID, c.cfg.ClientSecret, c.cfg.AdminUsername, c.cfg.AdminPassword)
	if err != nil {
		return "", fmt.Errorf("%w: admin token: %v", domain.ErrUpstream, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: admin token: status %d", domain.ErrUpstream, status)
	}

	if err := c.createUser(ctx, adminToken.AccessToken, username, email, password); err != nil {
		return "", err
	}

	id, err := c.lookupUserID(ctx, adminToken.AccessToken, username)
	if err != nil {
		return "", err
	}

	c.logger.Info().Str("username", username).Str("provider_id", id).Msg("remote account provisioned")
	return id, nil
}

// Ping checks provider reachability through the realm discovery document.
func (c *Client) Ping(ctx context.Context) error {
	timer := prometheusTimer("ping")
	defer timer()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.realmURL("/.well-known/openid-configuration"), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: discovery returned status %d", domain.ErrUpstream, resp.StatusCode)
	}
	return nil
}

// passwordGrant posts a password grant to the realm token endpoint and
// returns the decoded pair together with the raw status code. Transport
// errors are returned as-is for the caller to classify.
func (c *Client) passwordGrant(ctx context.Context, clientID, clientSecret, username, password string) (*domain.TokenPair, int, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", clientID)
	if clientSecret != "" {
		form.Set("client_secret", clientSecret)
	}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.realmURL("/protocol/openid-connect/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode token response: %w", err)
	}
	return &domain.TokenPair{AccessToken: body.AccessToken, RefreshToken: body.RefreshToken}, resp.StatusCode, nil
}

func (c *Client) createUser(ctx context.Context, adminToken, username, email, password string) error {
	payload, err := json.Marshal(map[string]any{
		"username": username,
		"email":    email,
		"enabled":  true,
		"credentials": []map[string]any{
			{"type": "password", "value": password, "temporary": false},
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.adminURL("/users"), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: create user: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: create user: status %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func (c *Client) lookupUserID(ctx context.Context, adminToken, username string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.adminURL("/users?exact=true&username="+url.QueryEscape(username)), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: lookup user: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: lookup user: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var users []struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return "", fmt.Errorf("%w: decode user list: %v", domain.ErrUpstream, err)
	}
	if len(users) == 0 {
		return "", fmt.Errorf("%w: provisioned user %q not found in listing", domain.ErrUpstream, username)
	}
	return users[0].ID, nil
}

func prometheusTimer(operation string) func() {
	start := time.Now()
	return func() {
		metrics.ProviderRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
