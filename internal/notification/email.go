// Package notification delivers account emails. Sends are advisory:
// callers treat a false return as "not delivered" and carry on, so a mail
// outage never rolls back a created or activated account.
package notification

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/yourorg/adminbase/internal/observability/metrics"
	"github.com/yourorg/adminbase/pkg/config"
)

// Sender delivers activation and welcome notices.
type Sender interface {
	SendActivationNotice(email, username, token string) bool
	SendWelcomeNotice(email, username string) bool
}

// SMTPSender sends mail through a configured SMTP relay.
type SMTPSender struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewSMTPSender(cfg *config.Config, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

// SendActivationNotice emails the activation link for a newly registered
// account.
func (s *SMTPSender) SendActivationNotice(email, username, token string) bool {
	activationURL := fmt.Sprintf("%s/api/auth/activate/%s", s.cfg.BaseURL, token)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\n"+
			"Thank you for registering. To complete your registration, open the link below to activate your account:\r\n\r\n"+
			"%s\r\n\r\n"+
			"This link will expire in %d hours. If you didn't create this account, please ignore this email.\r\n",
		username, activationURL, s.cfg.ActivationTTLHours,
	)
	delivered := s.send(email, "Activate Your Account", body)
	observeSend("activation", delivered)
	return delivered
}

// SendWelcomeNotice emails a confirmation after successful activation.
func (s *SMTPSender) SendWelcomeNotice(email, username string) bool {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\n"+
			"Your account has been successfully activated. You can now log in at %s/login.\r\n",
		username, s.cfg.BaseURL,
	)
	delivered := s.send(email, "Account Activated", body)
	observeSend("welcome", delivered)
	return delivered
}

func observeSend(kind string, delivered bool) {
	result := "failure"
	if delivered {
		result = "success"
	}
	metrics.ObserveEmailSend(kind, result)
}

func (s *SMTPSender) send(to, subject, body string) bool {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.cfg.FromEmail, to, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPServer, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPServer)

	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, []byte(msg)); err != nil {
		s.logger.Warn("email delivery failed",
			slog.String("to", to),
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.logger.Info("email sent",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return true
}

// NopSender drops all notices. Used in development when no SMTP relay is
// configured.
type NopSender struct {
	logger *slog.Logger
}

func NewNopSender(logger *slog.Logger) *NopSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &NopSender{logger: logger}
}

func (s *NopSender) SendActivationNotice(email, username, token string) bool {
	s.logger.Info("email delivery skipped (no SMTP configured)",
		slog.String("to", email),
		slog.String("kind", "activation"),
	)
	return false
}

func (s *NopSender) SendWelcomeNotice(email, username string) bool {
	s.logger.Info("email delivery skipped (no SMTP configured)",
		slog.String("to", email),
		slog.String("kind", "welcome"),
	)
	return false
}
