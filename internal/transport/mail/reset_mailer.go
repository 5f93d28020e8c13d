package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// ResetCodeMailer delivers password-reset codes over SMTP. It is the only
// code-delivery implementation; the service depends on the interface, not on
// this type.
type ResetCodeMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewResetCodeMailer(host, port, username, password, from string) *ResetCodeMailer {
	return &ResetCodeMailer{
		host:     strings.TrimSpace(host),
		port:     strings.TrimSpace(port),
		username: username,
		password: password,
		from:     strings.TrimSpace(from),
	}
}

func (m *ResetCodeMailer) SendResetCode(ctx context.Context, email, code string) error {
	if m == nil || m.host == "" || m.port == "" || m.from == "" {
		return errors.New("mailer missing configuration")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	subject := "Password Reset"
	body := fmt.Sprintf("Your verification code is: %s\n\nThe code expires in 15 minutes. If you did not request a password reset, ignore this email.", code)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: IBEDC Change Management System <%s>\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{email}, []byte(msg.String()))
}
