package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/identitylab/account-service/internal/core/domain"
	"github.com/identitylab/account-service/internal/core/ports"
)

// ProfileService implements authenticated reads and writes of the locally
// owned profile fields.
type ProfileService struct {
	repo   ports.AccountRepository
	audit  ports.AuditSink
	logger zerolog.Logger
}

func NewProfileService(repo ports.AccountRepository, audit ports.AuditSink, logger zerolog.Logger) *ProfileService {
	return &ProfileService{repo: repo, audit: audit, logger: logger}
}

func (s *ProfileService) Get(ctx context.Context, username string) (*domain.Account, error) {
	return s.repo.FindByUsername(ctx, username)
}

// ToggleMFA flips the MFA flag. The flip happens inside the store in one
// atomic update, so concurrent toggles for the same user obey row-level
// update semantics.
func (s *ProfileService) ToggleMFA(ctx context.Context, username string) (bool, error) {
	enabled, err := s.repo.ToggleMFA(ctx, username)
	if err != nil {
		return false, err
	}
	s.audit.Record(domain.AuditEvent{Actor: username, Action: domain.AuditMFAToggled, Timestamp: time.Now().UTC()})
	return enabled, nil
}

func (s *ProfileService) UpdatePhone(ctx context.Context, username, phone string) (string, error) {
	if phone == "" {
		return "", domain.ErrPhoneRequired
	}
	if err := s.repo.SetPhoneNumber(ctx, username, phone); err != nil {
		return "", err
	}
	s.audit.Record(domain.AuditEvent{Actor: username, Action: domain.AuditPhoneUpdated, Timestamp: time.Now().UTC()})
	return phone, nil
}
