package accounts

import (
	"context"
	"fmt"
	"strings"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the options the account subsystem needs. It is constructed
// once at process start and injected; there are no ambient singletons.
type Config interface {
	GetSigningKey() string
	GetEncryptionSecret() string
	GetIssuer() string
	GetAppBaseURL() string
	GetSessionTokenExpiration() int // hours
}

// Mailer sends a single transactional message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is an outbound transactional email: a header line, a body and an
// optional action button.
type Message struct {
	To         string
	Subject    string
	Header     string
	Body       string
	ActionText string
	ActionLink string
}

// Notifier accepts messages for best-effort asynchronous delivery.
// Enqueue never blocks and delivery failure never reaches the caller.
type Notifier interface {
	Enqueue(msg Message)
}

// Uploader stores profile images and returns a retrievable location.
type Uploader interface {
	Upload(ctx context.Context, base64Payload, key, mime string) (string, error)
	Delete(ctx context.Context, key string) error
}

// SessionIssuer establishes an authenticated session bound to a role and a
// sanitized account snapshot. Issuance is synchronous within the request
// that triggers it.
type SessionIssuer interface {
	Issue(ctx context.Context, role AccountRole, snapshot AccountView) (string, error)
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println("[ERR] ACCOUNTS " + formatLogLine(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Println("[WRN] ACCOUNTS " + formatLogLine(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println("[INF] ACCOUNTS " + formatLogLine(msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println("[DBG] ACCOUNTS " + formatLogLine(msg, args...))
}

// formatLogLine appends trailing args as key=value pairs, the same shape
// the zap adapter gives them. A dangling arg is emitted as-is.
func formatLogLine(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if len(args)%2 != 0 {
		fmt.Fprintf(&b, " %v", args[len(args)-1])
	}
	return b.String()
}
