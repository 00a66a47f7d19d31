package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenService handles JWT creation, validation, rotation, and revocation.
type TokenService interface {
	Issue(ctx context.Context, identity Identity, kind TokenKind) (string, *JWTClaims, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(ctx context.Context, tokenString string) (AuthClaims, error)
	Refresh(ctx context.Context, tokenString string) (string, *JWTClaims, error)
	Invalidate(ctx context.Context, tokenString string) error
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	cfg       Config
	blacklist TokenBlacklist
	logger    Logger
	clock     Clock
	random    SecureRandom
}

// NewTokenService creates a new TokenService instance. Pass a nil blacklist
// to disable revocation tracking entirely.
func NewTokenService(cfg Config, blacklist TokenBlacklist, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}

	if !cfg.GetBlacklistEnabled() {
		blacklist = nil
	}

	return &TokenServiceImpl{
		cfg:       cfg,
		blacklist: normalizeBlacklist(blacklist),
		logger:    logger,
		clock:     SystemClock(),
		random:    NewSecureRandom(),
	}
}

// WithClock overrides the time source used for claim timestamps and expiry
// checks.
func (ts *TokenServiceImpl) WithClock(clock Clock) *TokenServiceImpl {
	ts.clock = normalizeClock(clock)
	return ts
}

// WithSecureRandom overrides the jti source.
func (ts *TokenServiceImpl) WithSecureRandom(random SecureRandom) *TokenServiceImpl {
	ts.random = normalizeSecureRandom(random)
	return ts
}

func (ts *TokenServiceImpl) ttl(kind TokenKind) time.Duration {
	if kind == TokenKindRefresh {
		return time.Duration(ts.cfg.GetRefreshTokenTTL()) * time.Minute
	}
	return time.Duration(ts.cfg.GetAccessTokenTTL()) * time.Minute
}

func (ts *TokenServiceImpl) leeway() time.Duration {
	return time.Duration(ts.cfg.GetLeeway()) * time.Second
}

func (ts *TokenServiceImpl) gracePeriod() time.Duration {
	return time.Duration(ts.cfg.GetBlacklistGracePeriod()) * time.Second
}

// Issue mints a token for the identity with a fresh jti, issued-at = now,
// not-before = now, and expires-at = now + ttl(kind).
func (ts *TokenServiceImpl) Issue(ctx context.Context, identity Identity, kind TokenKind) (string, *JWTClaims, error) {
	if identity == nil {
		return "", nil, goerrors.New("identity is required", goerrors.CategoryBadInput)
	}
	return ts.issueForSubject(identity.ID(), identity.Role(), kind)
}

func (ts *TokenServiceImpl) issueForSubject(subject, role string, kind TokenKind) (string, *JWTClaims, error) {
	if kind != TokenKindAccess && kind != TokenKindRefresh {
		return "", nil, goerrors.New("unknown token kind", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"kind": string(kind)})
	}

	now := ts.clock.Now()

	var aud jwt.ClaimStrings
	if audience := ts.cfg.GetAudience(); len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.cfg.GetIssuer(),
			Subject:   subject,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl(kind))),
			ID:        ts.random.TokenID(),
		},
		UID:       subject,
		UserRole:  role,
		TokenKind: kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	signed, err := ts.SignClaims(claims)
	if err != nil {
		return "", nil, err
	}

	return signed, claims, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	method := jwt.GetSigningMethod(ts.cfg.GetSigningMethod())
	if method == nil {
		return "", goerrors.New("unknown signing method", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"method": ts.cfg.GetSigningMethod()})
	}

	token := jwt.NewWithClaims(method, claims)

	signedString, err := token.SignedString([]byte(ts.cfg.GetSigningKey()))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims.
// Failure modes: ErrTokenMalformed, ErrTokenExpired, ErrTokenNotYetValid,
// ErrTokenRevoked.
func (ts *TokenServiceImpl) Validate(ctx context.Context, tokenString string) (AuthClaims, error) {
	claims, err := ts.parse(tokenString, true)
	if err != nil {
		return nil, err
	}

	if missing := claims.missingClaims(ts.cfg.GetRequiredClaims()); len(missing) > 0 {
		return nil, goerrors.New(ErrTokenMalformed.Message, ErrTokenMalformed.Category).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithMetadata(map[string]any{"missing_claims": missing})
	}

	if err := ts.checkBlacklist(ctx, claims.TokenID()); err != nil {
		return nil, err
	}

	return claims, nil
}

// Refresh rotates the presented token: the old jti is blacklisted with the
// configured grace period and a new token of the same kind is issued for the
// same subject. During the grace window both tokens validate.
func (ts *TokenServiceImpl) Refresh(ctx context.Context, tokenString string) (string, *JWTClaims, error) {
	validated, err := ts.Validate(ctx, tokenString)
	if err != nil {
		return "", nil, err
	}

	old, ok := validated.(*JWTClaims)
	if !ok {
		return "", nil, goerrors.New("unexpected claims type during refresh", goerrors.CategoryInternal)
	}

	if err := ts.blacklistClaims(ctx, old, ts.gracePeriod()); err != nil {
		return "", nil, err
	}

	signed, claims, err := ts.issueForSubject(old.Subject(), old.Role(), old.Kind())
	if err != nil {
		return "", nil, err
	}

	return signed, claims, nil
}

// Invalidate blacklists the token's jti with no grace period. It accepts
// expired tokens so a stale session can still be logged out, but the
// signature must verify.
func (ts *TokenServiceImpl) Invalidate(ctx context.Context, tokenString string) error {
	claims, err := ts.parse(tokenString, false)
	if err != nil {
		return err
	}

	if claims.TokenID() == "" {
		return goerrors.New(ErrTokenMalformed.Message, ErrTokenMalformed.Category).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithMetadata(map[string]any{"missing_claims": []string{"jti"}})
	}

	return ts.blacklistClaims(ctx, claims, 0)
}

// CleanupBlacklist sweeps blacklist entries for tokens past their natural
// expiry; intended for an external scheduler.
func (ts *TokenServiceImpl) CleanupBlacklist(ctx context.Context) (int64, error) {
	return ts.blacklist.CleanupExpired(ctx, ts.clock.Now())
}

func (ts *TokenServiceImpl) parse(tokenString string, validateClaims bool) (*JWTClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 4)
	parserOptions = append(parserOptions, jwt.WithTimeFunc(ts.clock.Now))

	if validateClaims {
		if leeway := ts.leeway(); leeway > 0 {
			parserOptions = append(parserOptions, jwt.WithLeeway(leeway))
		}
		if issuer := ts.cfg.GetIssuer(); issuer != "" {
			parserOptions = append(parserOptions, jwt.WithIssuer(issuer))
		}
		if audience := ts.cfg.GetAudience(); len(audience) > 0 {
			parserOptions = append(parserOptions, jwt.WithAudience(audience...))
		}
	} else {
		parserOptions = append(parserOptions, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(ts.cfg.GetSigningKey()), nil
	}, parserOptions...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
				WithTextCode(ErrTokenMalformed.TextCode)
		}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, goerrors.New(ErrTokenMalformed.Message, ErrTokenMalformed.Category).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	return claims, nil
}

func (ts *TokenServiceImpl) checkBlacklist(ctx context.Context, jti string) error {
	entry, err := ts.blacklist.Lookup(ctx, jti)
	if err != nil {
		return wrapStorageError(err, "blacklist lookup failed")
	}

	if entry.Revoked(ts.clock.Now()) {
		return ErrTokenRevoked
	}

	return nil
}

func (ts *TokenServiceImpl) blacklistClaims(ctx context.Context, claims *JWTClaims, grace time.Duration) error {
	now := ts.clock.Now()

	entry := &BlacklistEntry{
		JTI:            claims.TokenID(),
		BlacklistedAt:  now,
		GracePeriodEnd: now.Add(grace),
		ExpiresAt:      claims.Expires(),
	}

	if err := ts.blacklist.Add(ctx, entry); err != nil {
		return wrapStorageError(err, "failed to blacklist token")
	}

	return nil
}
