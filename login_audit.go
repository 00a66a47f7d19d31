package auth

import (
	"context"
	"unicode/utf8"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	maxIPAddressLen = 45
	maxUserAgentLen = 1024
)

// LoginAttempt carries the audit metadata for one authentication attempt.
// UserID is nil when the email matched no account.
type LoginAttempt struct {
	UserID    *uuid.UUID
	Email     string
	IPAddress string
	UserAgent string
	Success   bool
}

// LoginRecorder appends login_logs rows. Callers treat recording as
// best-effort: the orchestrator logs and swallows any returned error so a
// failed write can never fail the auth flow.
type LoginRecorder interface {
	Record(ctx context.Context, attempt LoginAttempt) error
}

// LoginRecorderFunc adapts a function to the LoginRecorder interface.
type LoginRecorderFunc func(ctx context.Context, attempt LoginAttempt) error

// Record implements LoginRecorder.
func (f LoginRecorderFunc) Record(ctx context.Context, attempt LoginAttempt) error {
	if f == nil {
		return nil
	}
	return f(ctx, attempt)
}

type bunLoginRecorder struct {
	db *bun.DB
}

// NewLoginRecorder returns the bun-backed login_logs recorder.
func NewLoginRecorder(db *bun.DB) LoginRecorder {
	return &bunLoginRecorder{db: db}
}

func (r *bunLoginRecorder) Record(ctx context.Context, attempt LoginAttempt) error {
	row := &LoginLog{
		UserID:    attempt.UserID,
		Email:     attempt.Email,
		IPAddress: truncate(attempt.IPAddress, maxIPAddressLen),
		UserAgent: truncate(attempt.UserAgent, maxUserAgentLen),
		Success:   attempt.Success,
	}

	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to append login log")
	}

	return nil
}

type noopLoginRecorder struct{}

func (noopLoginRecorder) Record(context.Context, LoginAttempt) error { return nil }

func normalizeLoginRecorder(r LoginRecorder) LoginRecorder {
	if r == nil {
		return noopLoginRecorder{}
	}
	return r
}

// truncate caps s at max bytes without splitting a multibyte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
