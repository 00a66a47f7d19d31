package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/ytcsp/go-auth-module"
)

type stubLoggerProvider struct {
	names   []string
	loggers map[string]auth.Logger
}

func (p *stubLoggerProvider) GetLogger(name string) auth.Logger {
	p.names = append(p.names, name)
	return p.loggers[name]
}

func TestResolveLogger(t *testing.T) {
	named := &MockLogger{}
	explicit := &MockLogger{}

	t.Run("explicit logger wins", func(t *testing.T) {
		provider := &stubLoggerProvider{}

		_, logger := auth.ResolveLogger("auth", provider, explicit)
		assert.Equal(t, explicit, logger)
		assert.Empty(t, provider.names)
	})

	t.Run("falls back to the named provider logger", func(t *testing.T) {
		provider := &stubLoggerProvider{loggers: map[string]auth.Logger{"auth": named}}

		_, logger := auth.ResolveLogger("auth", provider, nil)
		assert.Equal(t, named, logger)
		assert.Equal(t, []string{"auth"}, provider.names)
	})

	t.Run("defaults when nothing resolves", func(t *testing.T) {
		_, logger := auth.ResolveLogger("auth", nil, nil)
		assert.NotNil(t, logger)
	})
}

func TestClockFunc(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	clock := auth.ClockFunc(func() time.Time { return at })
	assert.Equal(t, at, clock.Now())

	var nilClock auth.ClockFunc
	assert.False(t, nilClock.Now().IsZero())
}

func TestRecorderAndSinkFuncs(t *testing.T) {
	ctx := context.Background()

	var gotAttempt auth.LoginAttempt
	recorder := auth.LoginRecorderFunc(func(ctx context.Context, attempt auth.LoginAttempt) error {
		gotAttempt = attempt
		return nil
	})
	require.NoError(t, recorder.Record(ctx, auth.LoginAttempt{Email: "alice@example.com"}))
	assert.Equal(t, "alice@example.com", gotAttempt.Email)

	var gotEvent auth.ActivityEvent
	sink := auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		gotEvent = event
		return nil
	})
	require.NoError(t, sink.Record(ctx, auth.ActivityEvent{EventType: auth.EventLogout}))
	assert.Equal(t, auth.EventLogout, gotEvent.EventType)

	var nilRecorder auth.LoginRecorderFunc
	var nilSink auth.ActivitySinkFunc
	assert.NoError(t, nilRecorder.Record(ctx, auth.LoginAttempt{}))
	assert.NoError(t, nilSink.Record(ctx, auth.ActivityEvent{}))
}
