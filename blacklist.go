package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// TokenBlacklist is the durable store of revoked token identifiers. It is
// shared between service instances, so implementations must be backed by
// external storage rather than process memory.
type TokenBlacklist interface {
	Add(ctx context.Context, entry *BlacklistEntry) error
	Lookup(ctx context.Context, jti string) (*BlacklistEntry, error)
	Remove(ctx context.Context, jti string) (bool, error)
	// CleanupExpired deletes entries whose token's natural expiry already
	// passed; safe to run periodically and re-entrant.
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

type bunBlacklist struct {
	db *bun.DB
}

// NewTokenBlacklist returns the bun-backed blacklist store.
func NewTokenBlacklist(db *bun.DB) TokenBlacklist {
	return &bunBlacklist{db: db}
}

func (b *bunBlacklist) Add(ctx context.Context, entry *BlacklistEntry) error {
	if entry == nil || entry.JTI == "" {
		return goerrors.New("blacklist entry requires a jti", goerrors.CategoryBadInput)
	}

	// Re-blacklisting the same jti tightens to the earliest grace end, so a
	// hard revoke always wins over a prior grace-listed rotation.
	_, err := b.db.NewInsert().
		Model(entry).
		On("CONFLICT (jti) DO UPDATE").
		Set("grace_period_end = MIN(?TableAlias.grace_period_end, EXCLUDED.grace_period_end)").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist blacklist entry")
	}

	return nil
}

func (b *bunBlacklist) Lookup(ctx context.Context, jti string) (*BlacklistEntry, error) {
	entry := &BlacklistEntry{}

	err := b.db.NewSelect().
		Model(entry).
		Where("?TableAlias.jti = ?", jti).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query token blacklist")
	}

	return entry, nil
}

func (b *bunBlacklist) Remove(ctx context.Context, jti string) (bool, error) {
	res, err := b.db.NewDelete().
		Model((*BlacklistEntry)(nil)).
		Where("?TableAlias.jti = ?", jti).
		Exec(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove blacklist entry")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read blacklist delete result")
	}

	return affected > 0, nil
}

func (b *bunBlacklist) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := b.db.NewDelete().
		Model((*BlacklistEntry)(nil)).
		Where("?TableAlias.expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sweep token blacklist")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read blacklist sweep result")
	}

	return affected, nil
}

// noopBlacklist is used when blacklisting is disabled by configuration; every
// lookup misses and revocations are dropped.
type noopBlacklist struct{}

func (noopBlacklist) Add(context.Context, *BlacklistEntry) error { return nil }

func (noopBlacklist) Lookup(context.Context, string) (*BlacklistEntry, error) {
	return nil, nil
}

func (noopBlacklist) Remove(context.Context, string) (bool, error) { return false, nil }

func (noopBlacklist) CleanupExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func normalizeBlacklist(b TokenBlacklist) TokenBlacklist {
	if b == nil {
		return noopBlacklist{}
	}
	return b
}
