package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// PasswordResets stores single-use reset secrets keyed by email.
type PasswordResets interface {
	// CreateToken replaces any prior token for the email and returns the new
	// secret; delivery is the caller's concern.
	CreateToken(ctx context.Context, email string) (string, error)
	// VerifyToken reports whether (email, secret) matches an unexpired
	// record. It does not consume the token.
	VerifyToken(ctx context.Context, email, secret string) (bool, error)
	// DeleteToken removes the record for the email, reporting whether one
	// existed.
	DeleteToken(ctx context.Context, email string) (bool, error)
	// CleanupExpiredTokens deletes records older than the configured expiry;
	// intended for an external scheduler, idempotent and re-entrant.
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

type PasswordResetsImpl struct {
	db     *bun.DB
	cfg    Config
	clock  Clock
	random SecureRandom
}

// NewPasswordResets returns the bun-backed reset token store.
func NewPasswordResets(db *bun.DB, cfg Config) *PasswordResetsImpl {
	return &PasswordResetsImpl{
		db:     db,
		cfg:    cfg,
		clock:  SystemClock(),
		random: NewSecureRandom(),
	}
}

// WithClock overrides the time source used for created-at and expiry checks.
func (p *PasswordResetsImpl) WithClock(clock Clock) *PasswordResetsImpl {
	p.clock = normalizeClock(clock)
	return p
}

// WithSecureRandom overrides the secret generator.
func (p *PasswordResetsImpl) WithSecureRandom(random SecureRandom) *PasswordResetsImpl {
	p.random = normalizeSecureRandom(random)
	return p
}

func (p *PasswordResetsImpl) CreateToken(ctx context.Context, email string) (string, error) {
	if err := p.checkThrottle(ctx, email); err != nil {
		return "", err
	}

	secret, err := p.random.Token(p.cfg.GetResetTokenLength())
	if err != nil {
		return "", err
	}

	record := &PasswordResetToken{
		Email:     email,
		Token:     secret,
		CreatedAt: p.clock.Now(),
	}

	// Delete-then-insert runs in one transaction so a concurrent duplicate
	// request cannot leave two active tokens for the same address.
	err = p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*PasswordResetToken)(nil)).
			Where("?TableAlias.email = ?", email).
			Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset token")
	}

	return secret, nil
}

// checkThrottle rejects a new token while the previous one for the address
// is younger than the configured throttle window.
func (p *PasswordResetsImpl) checkThrottle(ctx context.Context, email string) error {
	throttle := p.cfg.GetResetThrottle()
	if throttle == "" {
		return nil
	}

	record := &PasswordResetToken{}
	err := p.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query password reset token")
	}

	recent, err := IsWithinThresholdPeriod(p.clock.Now(), record.CreatedAt, throttle)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invalid reset throttle pattern")
	}

	if recent {
		return ErrResetThrottled
	}

	return nil
}

func (p *PasswordResetsImpl) VerifyToken(ctx context.Context, email, secret string) (bool, error) {
	record := &PasswordResetToken{}

	err := p.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.token = ?", secret).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query password reset token")
	}

	return p.clock.Now().Before(record.ExpiresAt(p.cfg.GetResetTokenExpiry())), nil
}

func (p *PasswordResetsImpl) DeleteToken(ctx context.Context, email string) (bool, error) {
	res, err := p.db.NewDelete().
		Model((*PasswordResetToken)(nil)).
		Where("?TableAlias.email = ?", email).
		Exec(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete password reset token")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read reset token delete result")
	}

	return affected > 0, nil
}

func (p *PasswordResetsImpl) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	cutoff := p.clock.Now().Add(-time.Duration(p.cfg.GetResetTokenExpiry()) * time.Minute)

	res, err := p.db.NewDelete().
		Model((*PasswordResetToken)(nil)).
		Where("?TableAlias.created_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sweep password reset tokens")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read reset token sweep result")
	}

	return affected, nil
}

var _ PasswordResets = (*PasswordResetsImpl)(nil)
