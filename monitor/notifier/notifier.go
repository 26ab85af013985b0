package notifier

import (
	"context"
	"errors"
	"fmt"

	"hostwatch/pkg/wferrors"
)

// Notifier delivers alert messages.
type Notifier interface {
	// Name identifies the transport in logs.
	Name() string

	// Send delivers one alert message. A nil error means the message was
	// accepted by the remote side.
	Send(ctx context.Context, message string) error
}

// TransportError is returned when a message could not be delivered.
type TransportError struct {
	Notifier   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Notifier, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Notifier, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == wferrors.ErrTransport
}

const (
	KindTelegram = "telegram"
	KindEmail    = "email"
)

type Options struct {
	Kind string

	TelegramAPIURL string
	TelegramToken  string
	TelegramChatID string

	SMTPServer   string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTo       []string
	SMTPTLS      bool
}

// New builds the notifier selected by opts.Kind.
func New(opts Options) (Notifier, error) {
	switch opts.Kind {
	case "", KindTelegram:
		if opts.TelegramToken == "" || opts.TelegramChatID == "" {
			return nil, fmt.Errorf("%w: telegram token and chat id", wferrors.ErrNotifierCredentials)
		}
		return NewTelegramNotifier(opts.TelegramAPIURL, opts.TelegramToken, opts.TelegramChatID), nil
	case KindEmail:
		if opts.SMTPServer == "" || opts.SMTPFrom == "" || len(opts.SMTPTo) == 0 {
			return nil, fmt.Errorf("%w: smtp server, sender and recipients", wferrors.ErrNotifierCredentials)
		}
		return NewEmailNotifier(opts.SMTPServer, opts.SMTPPort, opts.SMTPUsername, opts.SMTPPassword, opts.SMTPFrom, opts.SMTPTo, opts.SMTPTLS), nil
	default:
		return nil, fmt.Errorf("%w: %q", wferrors.ErrUnknownNotifier, opts.Kind)
	}
}

// IsTransport reports whether err came from a failed delivery.
func IsTransport(err error) bool {
	return errors.Is(err, wferrors.ErrTransport)
}
