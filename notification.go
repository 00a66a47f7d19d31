package auth

import (
	"context"
	"net/url"

	"github.com/goliatone/go-print"
)

// ConsoleNotificationSender writes the would-be message payload to the
// logger. It stands in for a mail transport during development and tests.
type ConsoleNotificationSender struct {
	Logger Logger
}

// NewConsoleNotificationSender builds a sender that prints through logger.
func NewConsoleNotificationSender(logger Logger) *ConsoleNotificationSender {
	if logger == nil {
		logger = defLogger{}
	}
	return &ConsoleNotificationSender{Logger: logger}
}

func (s *ConsoleNotificationSender) SendPasswordReset(ctx context.Context, user *User, resetURL string) error {
	s.Logger.Info("password reset notification: %s", print.MaybePrettyJSON(map[string]any{
		"type":      "password_reset",
		"email":     user.Email,
		"reset_url": resetURL,
	}))
	return nil
}

func (s *ConsoleNotificationSender) SendEmailVerification(ctx context.Context, user *User, verificationHash string) error {
	s.Logger.Info("email verification notification: %s", print.MaybePrettyJSON(map[string]any{
		"type":  "email_verification",
		"email": user.Email,
		"hash":  verificationHash,
	}))
	return nil
}

type noopNotificationSender struct{}

func (noopNotificationSender) SendPasswordReset(context.Context, *User, string) error { return nil }

func (noopNotificationSender) SendEmailVerification(context.Context, *User, string) error {
	return nil
}

func normalizeNotificationSender(sender NotificationSender) NotificationSender {
	if sender == nil {
		return noopNotificationSender{}
	}
	return sender
}

// BuildResetURL appends the email and secret as query parameters to the
// configured reset base URL.
func BuildResetURL(base, email, secret string) string {
	u, err := url.Parse(base)
	if err != nil {
		u = &url.URL{Path: base}
	}

	q := u.Query()
	q.Set("email", email)
	q.Set("token", secret)
	u.RawQuery = q.Encode()

	return u.String()
}
