// Package mailer is the outbound email side channel. Senders are fire-and-forget from the
// caller's point of view: callers log a failed Send and carry on.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/curaious/projecthub/internal/config"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the mailer selected by EMAIL_PROVIDER.
func New(conf *config.Config, client *http.Client) (Mailer, error) {
	switch conf.EMAIL_PROVIDER {
	case "", config.EmailProviderLog:
		return NewLogMailer(conf.EMAIL_FROM), nil
	case config.EmailProviderResend:
		if conf.RESEND_API_KEY == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER is %q", config.EmailProviderResend)
		}
		return NewResendMailer(conf.RESEND_API_KEY, conf.EMAIL_FROM, client), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", conf.EMAIL_PROVIDER)
	}
}

// LogMailer does not deliver anything; it logs what would have been sent.
type LogMailer struct {
	from string
}

func NewLogMailer(from string) *LogMailer {
	return &LogMailer{from: from}
}

func (l *LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}

	slog.InfoContext(ctx, "Email sent",
		slog.String("from", l.from),
		slog.String("to", msg.To),
		slog.String("subject", "[MOCK] "+msg.Subject),
		slog.Int("html_bytes", len(msg.HTML)))
	return nil
}
