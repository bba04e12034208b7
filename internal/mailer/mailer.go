package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// Config carries SMTP settings. Credentials come from configuration, never
// from source.
type Config struct {
	Host     string
	Port     string
	From     string
	Password string
	Enabled  bool
}

type Mailer struct {
	cfg Config
}

func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendNotificationEmail delivers a stored notification to the recipient's
// mailbox. With Enabled false it logs and reports success, so environments
// without an SMTP relay still work end to end.
func (m *Mailer) SendNotificationEmail(log *zerolog.Logger, recipientEmail, title, message string) error {
	if !m.cfg.Enabled {
		log.Debug().Str("email", recipientEmail).Str("title", title).Msg("mailer disabled, skipping delivery")
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipientEmail, title, message,
	)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipientEmail}, []byte(msg)); err != nil {
		log.Warn().Msgf("failed to send email to %s: %v", recipientEmail, err)
		return fmt.Errorf("send email: %w", err)
	}

	log.Info().Msgf("email sent to %s (%s)", recipientEmail, title)
	return nil
}
