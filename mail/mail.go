package mail

import (
	"gopkg.in/gomail.v2"

	"github.com/mkondo/parasurvey/config"
	"github.com/mkondo/parasurvey/log"
)

// Sender dispatches a single HTML mail. Callers treat delivery as
// best-effort: failures are logged, never surfaced to respondents.
type Sender interface {
	Send(to, subject, html string) error
}

// NewSender returns an SMTP-backed sender, or a disabled one when no SMTP
// host is configured.
func NewSender(cfg config.Config) Sender {
	if cfg.SMTPHost == "" {
		return disabledSender{}
	}
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.MailFrom,
	}
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func (s *smtpSender) Send(to, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)
	return s.dialer.DialAndSend(m)
}

type disabledSender struct{}

func (disabledSender) Send(to, subject, html string) error {
	log.Debugf("mail disabled, dropping message to %s", to)
	return nil
}
