package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/identitylab/account-service/internal/api/metrics"
	"github.com/identitylab/account-service/internal/core/domain"
	"github.com/identitylab/account-service/internal/core/ports"
)

const resetTokenLength = 32

const resetTokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// AccountService orchestrates register, login, logout and the password
// reset flow across the local store, the identity provider, the reset-token
// store and the mailer.
type AccountService struct {
	repo        ports.AccountRepository
	idp         ports.IdentityProvider
	resets      ports.ResetTokenStore
	mailer      ports.Mailer
	audit       ports.AuditSink
	frontendURL string
	resetTTL    time.Duration
	logger      zerolog.Logger
}

func NewAccountService(
	repo ports.AccountRepository,
	idp ports.IdentityProvider,
	resets ports.ResetTokenStore,
	mailer ports.Mailer,
	audit ports.AuditSink,
	frontendURL string,
	resetTTL time.Duration,
	logger zerolog.Logger,
) *AccountService {
	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}
	return &AccountService{
		repo:        repo,
		idp:         idp,
		resets:      resets,
		mailer:      mailer,
		audit:       audit,
		frontendURL: frontendURL,
		resetTTL:    resetTTL,
		logger:      logger,
	}
}

// Register creates the local account and mirrors it to the identity
// provider as one logical write: when remote provisioning fails the local
// record is rolled back and the registration fails whole.
func (s *AccountService) Register(ctx context.Context, username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return domain.ErrMissingFields
	}

	// Uniqueness is checked before any remote call is made.
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return domain.ErrUsernameExists
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.repo.Create(ctx, account); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	providerID, err := s.idp.ProvisionAccount(ctx, username, email, password)
	if err != nil {
		if delErr := s.repo.Delete(ctx, username); delErr != nil {
			s.logger.Error().Err(delErr).Str("username", username).
				Msg("rollback of local account failed after provisioning error")
		}
		metrics.RegistrationsTotal.WithLabelValues("provisioning_failed").Inc()
		return err
	}

	if err := s.repo.SetProviderID(ctx, username, providerID); err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	s.audit.Record(domain.AuditEvent{Actor: username, Action: domain.AuditRegistered, Timestamp: now})
	s.logger.Info().Str("username", username).Str("provider_id", providerID).Msg("account registered")
	return nil
}

// Login exchanges credentials with the identity provider and returns the
// token pair verbatim.
func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	if username == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	pair, err := s.idp.ExchangePassword(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("provider_error").Inc()
		}
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	s.audit.Record(domain.AuditEvent{Actor: username, Action: domain.AuditLogin, Timestamp: time.Now().UTC()})
	return pair, nil
}

// Logout is stateless with respect to the identity provider: no remote
// revocation is performed.
func (s *AccountService) Logout(ctx context.Context, username string) error {
	s.audit.Record(domain.AuditEvent{Actor: username, Action: domain.AuditLogout, Timestamp: time.Now().UTC()})
	return nil
}

// ForgotPassword issues a single-use reset token scoped to the email and
// mails a reset link. Unknown emails fail with ErrAccountNotFound and never
// create a token.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrMissingFields
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}
	if err := s.resets.Issue(ctx, email, token, s.resetTTL); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s", s.frontendURL, token, email)
	body := fmt.Sprintf("Click the following link to reset your password: %s", link)
	if err := s.mailer.Send(ctx, "Password Reset Request", body, email); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("reset email delivery failed")
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()
	s.audit.Record(domain.AuditEvent{Actor: account.Username, Action: domain.AuditResetRequest, Timestamp: time.Now().UTC()})
	return nil
}

// ResetPassword consumes the token and updates the stored password hash.
// A non-matching or absent token fails without mutating anything.
func (s *AccountService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if email == "" || token == "" || newPassword == "" {
		return domain.ErrMissingFields
	}

	if err := s.resets.Consume(ctx, email, token); err != nil {
		metrics.PasswordResetsTotal.WithLabelValues("rejected").Inc()
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordByEmail(ctx, email, string(hash)); err != nil {
		return err
	}

	metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()
	s.audit.Record(domain.AuditEvent{Actor: email, Action: domain.AuditResetComplete, Timestamp: time.Now().UTC()})
	s.logger.Info().Str("email", email).Msg("password reset completed")
	return nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, resetTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = resetTokenAlphabet[int(b)%len(resetTokenAlphabet)]
	}
	return string(buf), nil
}
