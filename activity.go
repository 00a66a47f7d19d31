package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Auth event types emitted through the ActivitySink.
const (
	EventLoginSucceeded    = "auth.login.succeeded"
	EventLoginFailed       = "auth.login.failed"
	EventLogout            = "auth.logout"
	EventTokenRefreshed    = "auth.token.refreshed"
	EventPasswordChanged   = "auth.password.changed"
	EventPasswordResetSent = "auth.password_reset.requested"
	EventPasswordResetDone = "auth.password_reset.completed"
	EventEmailVerified     = "auth.email.verified"
	EventAccountRegistered = "auth.account.registered"
)

// ActorRef identifies who triggered an event. For self-service auth flows
// the actor and the subject are the same account.
type ActorRef struct {
	ID    *uuid.UUID `json:"id,omitempty"`
	Email string     `json:"email,omitempty"`
}

// ActivityEvent is a domain event describing something that happened in the
// auth lifecycle. Sinks can fan these out to audit trails or message buses.
type ActivityEvent struct {
	EventType  string         `json:"event_type"`
	Actor      ActorRef       `json:"actor"`
	UserID     *uuid.UUID     `json:"user_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ActivitySink receives auth lifecycle events. Emitters log and drop sink
// errors; a failing sink never fails the auth flow.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error { return nil }

func normalizeActivitySink(sink ActivitySink) ActivitySink {
	if sink == nil {
		return noopActivitySink{}
	}
	return sink
}
