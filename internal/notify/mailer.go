package notify

import (
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

// ErrNotConfigured reports that the relay settings are too incomplete to
// send anything.
var ErrNotConfigured = errors.New("smtp relay not configured")

// Mailer delivers one rendered message to one recipient.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends through a relay that upgrades to STARTTLS, using plain
// authentication. The user doubles as the sender address.
type SMTPMailer struct {
	Server   string
	Port     int
	User     string
	Password string
}

// Configured reports whether the relay settings are complete.
func (m *SMTPMailer) Configured() bool {
	return m.Server != "" && m.User != "" && m.Password != ""
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	addr := fmt.Sprintf("%s:%d", m.Server, m.Port)
	auth := smtp.PlainAuth("", m.User, m.Password, m.Server)
	if err := smtp.SendMail(addr, auth, m.User, []string{to}, message(m.User, to, subject, htmlBody)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// message assembles the raw RFC 5322 payload. Subjects carry plant names, so
// they get Q-encoded for the non-ASCII case.
func message(from, to, subject, htmlBody string) []byte {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	return []byte(msg.String())
}

var _ Mailer = (*SMTPMailer)(nil)
