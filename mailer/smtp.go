package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/classmate-dev/go-accounts"
	"github.com/goliatone/go-errors"
)

// SMTPMailer sends transactional email over plain SMTP.
type SMTPMailer struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	senderName string
}

var _ accounts.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a new SMTPMailer.
func NewSMTPMailer(host string, port int, username, password, from, senderName string) *SMTPMailer {
	return &SMTPMailer{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		from:       from,
		senderName: senderName,
	}
}

// Send delivers a single message as a multipart text+html email.
func (s *SMTPMailer) Send(ctx context.Context, msg accounts.Message) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{msg.To}, s.render(msg)); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "smtp delivery failed").
			WithMetadata(map[string]any{"to": msg.To, "subject": msg.Subject})
	}

	return nil
}

func (s *SMTPMailer) render(msg accounts.Message) []byte {
	from := s.from
	if s.senderName != "" {
		from = fmt.Sprintf("%s <%s>", s.senderName, s.from)
	}

	const boundary = "go-accounts-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	// plain text part
	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n%s\r\n", msg.Header, msg.Body)
	if msg.ActionLink != "" {
		fmt.Fprintf(&b, "\r\n%s: %s\r\n", msg.ActionText, msg.ActionLink)
	}
	b.WriteString("\r\n")

	// html part
	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&b, "<p><b>%s</b></p><p>%s</p>", msg.Header, htmlBreaks(msg.Body))
	if msg.ActionLink != "" {
		fmt.Fprintf(&b, `<p><a href=%q>%s</a></p>`, msg.ActionLink, msg.ActionText)
	}
	b.WriteString("\r\n\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

func htmlBreaks(body string) string {
	return strings.ReplaceAll(body, "\n", "<br/>")
}
