package auth_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/ytcsp/go-auth-module"
)

func TestLoginRecorder(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	recorder := auth.NewLoginRecorder(db)

	fetchRows := func(t *testing.T, email string) []auth.LoginLog {
		t.Helper()
		var rows []auth.LoginLog
		err := db.NewSelect().
			Model(&rows).
			Where("email = ?", email).
			Order("id ASC").
			Scan(ctx)
		require.NoError(t, err)
		return rows
	}

	t.Run("records a successful attempt with the account id", func(t *testing.T) {
		userID := uuid.New()
		err := recorder.Record(ctx, auth.LoginAttempt{
			UserID:    &userID,
			Email:     "alice@example.com",
			IPAddress: "203.0.113.7",
			UserAgent: "test-agent/1.0",
			Success:   true,
		})
		require.NoError(t, err)

		rows := fetchRows(t, "alice@example.com")
		require.Len(t, rows, 1)
		require.NotNil(t, rows[0].UserID)
		assert.Equal(t, userID, *rows[0].UserID)
		assert.Equal(t, "203.0.113.7", rows[0].IPAddress)
		assert.True(t, rows[0].Success)
	})

	t.Run("records a failure for an unknown email with no account id", func(t *testing.T) {
		err := recorder.Record(ctx, auth.LoginAttempt{
			Email:     "ghost@example.com",
			IPAddress: "203.0.113.8",
			Success:   false,
		})
		require.NoError(t, err)

		rows := fetchRows(t, "ghost@example.com")
		require.Len(t, rows, 1)
		assert.Nil(t, rows[0].UserID)
		assert.False(t, rows[0].Success)
	})

	t.Run("truncates oversized request metadata", func(t *testing.T) {
		err := recorder.Record(ctx, auth.LoginAttempt{
			Email:     "bob@example.com",
			IPAddress: strings.Repeat("1", 100),
			UserAgent: strings.Repeat("x", 5000),
			Success:   false,
		})
		require.NoError(t, err)

		rows := fetchRows(t, "bob@example.com")
		require.Len(t, rows, 1)
		assert.Len(t, rows[0].IPAddress, 45)
		assert.Len(t, rows[0].UserAgent, 1024)
	})

	t.Run("truncation never splits a multibyte rune", func(t *testing.T) {
		// 1023 ASCII bytes plus a two byte rune straddling the cap
		agent := strings.Repeat("a", 1023) + "é"
		err := recorder.Record(ctx, auth.LoginAttempt{
			Email:     "eve@example.com",
			UserAgent: agent,
			Success:   false,
		})
		require.NoError(t, err)

		rows := fetchRows(t, "eve@example.com")
		require.Len(t, rows, 1)
		assert.Equal(t, strings.Repeat("a", 1023), rows[0].UserAgent)
		assert.True(t, utf8.ValidString(rows[0].UserAgent))
	})

	t.Run("rows append rather than overwrite", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, recorder.Record(ctx, auth.LoginAttempt{
				Email:   "carol@example.com",
				Success: i == 2,
			}))
		}

		rows := fetchRows(t, "carol@example.com")
		assert.Len(t, rows, 3)
	})
}
