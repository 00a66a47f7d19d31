package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/ytcsp/go-auth-module"
)

func TestUsersRepository_Create(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := auth.NewUsersRepository(db)

	t.Run("fills in defaults on create", func(t *testing.T) {
		user, err := repo.Create(ctx, &auth.User{
			Username: "alice",
			Email:    "alice@example.com",
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, auth.RoleGuest, user.Role)
	})

	t.Run("keeps an explicit role and id", func(t *testing.T) {
		id := uuid.New()
		user, err := repo.Create(ctx, &auth.User{
			ID:       id,
			Username: "bob",
			Email:    "bob@example.com",
			Role:     auth.RoleAdmin,
		})

		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, auth.RoleAdmin, user.Role)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		_, err := repo.Create(ctx, &auth.User{
			Username: "alice-2",
			Email:    "alice@example.com",
		})
		assert.Error(t, err)
	})
}

func TestUsersRepository_GetByIdentifier(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := auth.NewUsersRepository(db)

	created, err := repo.Create(ctx, &auth.User{
		Username: "carol",
		Email:    "carol@example.com",
	})
	require.NoError(t, err)

	t.Run("finds by email", func(t *testing.T) {
		user, err := repo.GetByIdentifier(ctx, "carol@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("finds by username", func(t *testing.T) {
		user, err := repo.GetByIdentifier(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("finds by id", func(t *testing.T) {
		user, err := repo.GetByIdentifier(ctx, created.ID.String())
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("reports record not found", func(t *testing.T) {
		_, err := repo.GetByIdentifier(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestUsersRepository_ResetPassword(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := auth.NewUsersRepository(db)

	hash, err := auth.HashPassword("original-password")
	require.NoError(t, err)

	created, err := repo.Create(ctx, &auth.User{
		Username:     "dave",
		Email:        "dave@example.com",
		PasswordHash: hash,
	})
	require.NoError(t, err)
	require.False(t, created.HasVerifiedEmail())

	newHash, err := auth.HashPassword("replacement-password")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.ResetPassword(ctx, created.ID, newHash, now))

	user, err := repo.GetByIdentifier(ctx, "dave@example.com")
	require.NoError(t, err)

	assert.NoError(t, auth.ComparePasswordAndHash("replacement-password", user.PasswordHash))
	assert.Error(t, auth.ComparePasswordAndHash("original-password", user.PasswordHash))

	// a completed reset also proves control of the mailbox
	assert.True(t, user.HasVerifiedEmail())

	t.Run("unknown id reports record not found", func(t *testing.T) {
		err := repo.ResetPassword(ctx, uuid.New(), newHash, now)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestUsersRepository_MarkEmailVerified(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := auth.NewUsersRepository(db)

	created, err := repo.Create(ctx, &auth.User{
		Username: "erin",
		Email:    "erin@example.com",
	})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)

	first, err := repo.MarkEmailVerified(ctx, created.ID, now)
	require.NoError(t, err)
	assert.True(t, first)

	user, err := repo.GetByIdentifier(ctx, "erin@example.com")
	require.NoError(t, err)
	assert.True(t, user.HasVerifiedEmail())

	// a second verification is a no-op
	again, err := repo.MarkEmailVerified(ctx, created.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, again)

	user, err = repo.GetByIdentifier(ctx, "erin@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, now, *user.EmailVerifiedAt, time.Second)
}

func TestUsersRepository_TrackSuccessfulLogin(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := auth.NewUsersRepository(db)

	created, err := repo.Create(ctx, &auth.User{
		Username: "frank",
		Email:    "frank@example.com",
	})
	require.NoError(t, err)
	require.Nil(t, created.LoggedInAt)

	require.NoError(t, repo.TrackSuccessfulLogin(ctx, created))

	user, err := repo.GetByIdentifier(ctx, "frank@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.LoggedInAt)
	assert.WithinDuration(t, time.Now(), *user.LoggedInAt, 5*time.Second)
}
