package email

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrProviderFailure is returned by the fail provider.
var ErrProviderFailure = errors.New("email provider failure")

// Message is one outbound email
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Provider delivers a Message and returns the provider's message id
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewProvider selects a provider by name: resend, log, noop or fail.
func NewProvider(kind, resendAPIKey string, log *zap.Logger) (Provider, error) {
	switch strings.ToLower(kind) {
	case "resend":
		if resendAPIKey == "" {
			return nil, errors.New("resend provider requires an api key")
		}
		return NewResendProvider(resendAPIKey), nil
	case "", "log":
		return LogProvider{log: log}, nil
	case "noop":
		return NoopProvider{}, nil
	case "fail":
		return FailProvider{}, nil
	default:
		return nil, errors.New("unknown email provider " + kind)
	}
}

// LogProvider writes messages to the logger instead of sending them.
type LogProvider struct {
	log *zap.Logger
}

func NewLogProvider(log *zap.Logger) LogProvider {
	return LogProvider{log: log}
}

func (p LogProvider) Send(ctx context.Context, msg Message) (string, error) {
	id := "log-" + uuid.NewString()
	p.log.Info("email not sent (log provider)",
		zap.String("email_id", id),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return id, nil
}

type NoopProvider struct{}

func (NoopProvider) Send(ctx context.Context, msg Message) (string, error) {
	return "", nil
}

type FailProvider struct{}

func (FailProvider) Send(ctx context.Context, msg Message) (string, error) {
	return "", ErrProviderFailure
}
