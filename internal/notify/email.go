package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SMTPSender delivers transactional email over SMTP with STARTTLS.
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
	Log  zerolog.Logger
}

// Configured reports whether SMTP credentials are present.
func (s *SMTPSender) Configured() bool {
	return s != nil && strings.TrimSpace(s.Host) != "" && strings.TrimSpace(s.From) != ""
}

// Send delivers a plain-text message to a single recipient.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if !s.Configured() {
		return fmt.Errorf("smtp sender not configured")
	}
	addr := net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if strings.TrimSpace(s.User) != "" {
		auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(s.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n",
		s.From, to, subject, body)
	if _, err := wc.Write([]byte(msg)); err != nil {
		wc.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}
