// Package mail implements the outbound notification channel over SMTP.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Config captures the SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends plain-text mail through a relay. Errors propagate to the
// caller; nothing is retried here.
type SMTPMailer struct {
	cfg    Config
	logger zerolog.Logger
}

func NewSMTPMailer(cfg Config, logger zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, subject, body, recipient string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + recipient,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Info().Str("recipient", recipient).Str("subject", subject).Msg("mail sent")
	return nil
}
