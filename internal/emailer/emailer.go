// Package emailer sends operator notifications to a plain distribution
// list, for sites that route alerts through email instead of (or
// alongside) chat. Its callers mirror the schedule-proposal pushes;
// factory-failure alerts go to the Telegram channel only. No library in
// the dependency set offers an SMTP client beyond net/smtp, so this
// package is the one deliberate stdlib-only exception to the rest of
// the notification stack.
package emailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	Recipients []string
}

type Emailer struct {
	cfg  Config
	auth smtp.Auth
}

func New(cfg Config) *Emailer {
	return &Emailer{
		cfg:  cfg,
		auth: smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host),
	}
}

// Send delivers a plain-text message to every configured recipient in a
// single SMTP transaction.
func (e *Emailer) Send(subject, body string) error {
	if len(e.cfg.Recipients) == 0 {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	msg := buildMessage(e.cfg.From, e.cfg.Recipients, subject, body)

	if err := smtp.SendMail(addr, e.auth, e.cfg.From, e.cfg.Recipients, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
