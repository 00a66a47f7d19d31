package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Auther orchestrates the auth flows over the token service, the stores and
// the notification transport.
type Auther struct {
	repo           RepositoryManager
	tokens         TokenService
	notifier       NotificationSender
	activity       ActivitySink
	featureGate    gate.FeatureGate
	cfg            Config
	logger         Logger
	loggerProvider LoggerProvider
	clock          Clock
	useHashid      bool
}

// LoginResult is the successful outcome of Login or Refresh.
type LoginResult struct {
	Token     string `json:"token"`
	Subject   string `json:"subject"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, cfg Config) *Auther {
	return &Auther{
		repo:     repo,
		tokens:   NewTokenService(cfg, repo.Blacklist(), defLogger{}),
		notifier: noopNotificationSender{},
		activity: noopActivitySink{},
		cfg:      cfg,
		logger:   defLogger{},
		clock:    SystemClock(),
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithLoggerProvider resolves this service's logger from a named provider.
func (s *Auther) WithLoggerProvider(provider LoggerProvider) *Auther {
	s.loggerProvider, s.logger = ResolveLogger("auth", provider, nil)
	return s
}

// WithTokenService replaces the default token service.
func (s *Auther) WithTokenService(tokens TokenService) *Auther {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// WithNotificationSender configures the out-of-band message transport.
func (s *Auther) WithNotificationSender(sender NotificationSender) *Auther {
	s.notifier = normalizeNotificationSender(sender)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activity = normalizeActivitySink(sink)
	return s
}

// WithFeatureGate configures runtime feature checks.
func (s *Auther) WithFeatureGate(featureGate gate.FeatureGate) *Auther {
	s.featureGate = featureGate
	return s
}

// WithClock overrides the time source.
func (s *Auther) WithClock(clock Clock) *Auther {
	s.clock = normalizeClock(clock)
	return s
}

// WithHashidIDs derives new account IDs deterministically from the email.
func (s *Auther) WithHashidIDs(enabled bool) *Auther {
	s.useHashid = enabled
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies the credentials and issues an access token. Every failure
// path collapses into ErrInvalidCredentials so callers cannot tell which
// addresses exist; the audit row keeps the real reason.
func (s *Auther) Login(ctx context.Context, payload LoginPayload) (*LoginResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByIdentifier(ctx, payload.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.recordAttempt(ctx, nil, payload, false)
			s.emitAuthEvent(ctx, EventLoginFailed, ActorRef{Email: payload.Email}, nil, map[string]any{
				"reason": "unknown identifier",
			})
			return nil, ErrInvalidCredentials
		}
		return nil, wrapStorageError(err, "failed to look up account")
	}

	if err := ComparePasswordAndHash(payload.Password, user.PasswordHash); err != nil {
		s.recordAttempt(ctx, user, payload, false)
		s.emitAuthEvent(ctx, EventLoginFailed, s.actorFromUser(user), &user.ID, map[string]any{
			"reason": "password mismatch",
		})
		return nil, ErrInvalidCredentials
	}

	s.maybeRehashPassword(ctx, user, payload.Password)

	if s.cfg.GetEmailVerificationEnabled() && !user.HasVerifiedEmail() {
		s.recordAttempt(ctx, user, payload, false)
		s.emitAuthEvent(ctx, EventLoginFailed, s.actorFromUser(user), &user.ID, map[string]any{
			"reason": "email not verified",
		})
		return nil, ErrEmailNotVerified
	}

	token, claims, err := s.tokens.Issue(ctx, NewIdentityFromUser(user), TokenKindAccess)
	if err != nil {
		s.logger.Error("Login token issue error: %v", err)
		return nil, err
	}

	if err := s.repo.Users().TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Warn("Login failed to track successful login: %v", err)
	}

	s.recordAttempt(ctx, user, payload, true)
	s.emitAuthEvent(ctx, EventLoginSucceeded, s.actorFromUser(user), &user.ID, nil)

	return s.loginResult(token, claims), nil
}

// RegisterResult is the outcome of Register. Login is set only when email
// verification is off and a first token was issued.
type RegisterResult struct {
	User  *User        `json:"user"`
	Login *LoginResult `json:"login,omitempty"`
}

// Register validates the payload and creates the account. When email
// verification is on, the account starts unverified and gets a verification
// notification; otherwise a first access token is issued right away.
func (s *Auther) Register(ctx context.Context, payload RegisterPayload) (*RegisterResult, error) {
	if err := requireFeatureGate(ctx, s.featureGate, FeatureRegistration, ErrRegistrationDisabled); err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Username:     getUsername(payload.Username, payload.Email),
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		Phone:        NormalizePhoneNumber(payload.Phone),
		PasswordHash: hash,
		Role:         RoleMember,
	}

	if s.useHashid {
		if id, err := hashid.NewUUID(user.Email); err == nil {
			user.ID = id
		}
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}
		user = created
		return nil
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	s.emitAuthEvent(ctx, EventAccountRegistered, s.actorFromUser(user), &user.ID, nil)

	result := &RegisterResult{User: user}

	if s.cfg.GetEmailVerificationEnabled() {
		if err := s.notifier.SendEmailVerification(ctx, user, EmailVerificationHash(user.Email)); err != nil {
			s.logger.Warn("Register failed to send verification notification: %v", err)
		}
		return result, nil
	}

	token, claims, err := s.tokens.Issue(ctx, NewIdentityFromUser(user), TokenKindAccess)
	if err != nil {
		s.logger.Error("Register token issue error: %v", err)
		return result, nil
	}
	result.Login = s.loginResult(token, claims)

	return result, nil
}

// ChangePassword swaps the password after re-verifying the current one. The
// presenting token, when given, is revoked so the session re-authenticates.
func (s *Auther) ChangePassword(ctx context.Context, identifier, current, next, presentedToken string) error {
	user, err := s.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrInvalidCredentials
		}
		return wrapStorageError(err, "failed to look up account")
	}

	if err := ComparePasswordAndHash(current, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(next)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	record := &User{ID: user.ID, PasswordHash: hash}
	if _, err := s.repo.Users().Update(ctx, record, repository.UpdateByID(user.ID.String())); err != nil {
		return wrapStorageError(err, "failed to update password")
	}

	if presentedToken != "" {
		if err := s.tokens.Invalidate(ctx, presentedToken); err != nil {
			s.logger.Warn("ChangePassword failed to revoke presenting token: %v", err)
		}
	}

	s.emitAuthEvent(ctx, EventPasswordChanged, s.actorFromUser(user), &user.ID, nil)

	return nil
}

// Logout revokes the presented token.
func (s *Auther) Logout(ctx context.Context, raw string) error {
	if err := s.tokens.Invalidate(ctx, raw); err != nil {
		return err
	}

	s.emitAuthEvent(ctx, EventLogout, ActorRef{}, nil, nil)

	return nil
}

// Refresh rotates the presented token.
func (s *Auther) Refresh(ctx context.Context, raw string) (*LoginResult, error) {
	token, claims, err := s.tokens.Refresh(ctx, raw)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, EventTokenRefreshed, ActorRef{}, nil, map[string]any{
		"subject": claims.Subject(),
	})

	return s.loginResult(token, claims), nil
}

// RequestPasswordReset mints a reset secret and hands it to the notifier.
// The outcome is identical whether or not the address exists.
func (s *Auther) RequestPasswordReset(ctx context.Context, email string) error {
	if err := requireFeatureGate(ctx, s.featureGate, FeaturePasswordReset, ErrPasswordResetDisabled); err != nil {
		return err
	}

	user, err := s.repo.Users().GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Debug("RequestPasswordReset unknown address: %s", email)
			return nil
		}
		return wrapStorageError(err, "failed to look up account")
	}

	secret, err := s.repo.PasswordResets().CreateToken(ctx, user.Email)
	if err != nil {
		if errors.Is(err, ErrResetThrottled) {
			// a visible throttle would reveal the address exists
			s.logger.Debug("RequestPasswordReset throttled: %s", email)
			return nil
		}
		return err
	}

	resetURL := BuildResetURL(s.cfg.GetResetURL(), user.Email, secret)
	if err := s.notifier.SendPasswordReset(ctx, user, resetURL); err != nil {
		s.logger.Error("RequestPasswordReset notification error: %v", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send password reset notification")
	}

	s.emitAuthEvent(ctx, EventPasswordResetSent, s.actorFromUser(user), &user.ID, nil)

	return nil
}

// ConfirmPasswordReset finalizes a reset: the secret is checked, the
// password replaced and the token consumed. Completing a reset also marks
// the address verified since the secret arrived by email.
func (s *Auther) ConfirmPasswordReset(ctx context.Context, payload PasswordResetPayload) error {
	if err := requireFeatureGate(ctx, s.featureGate, FeaturePasswordReset, ErrPasswordResetDisabled); err != nil {
		return err
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	ok, err := s.repo.PasswordResets().VerifyToken(ctx, payload.Email, payload.Token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrResetTokenInvalid
	}

	user, err := s.repo.Users().GetByIdentifier(ctx, payload.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrResetTokenInvalid
		}
		return wrapStorageError(err, "failed to look up account")
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash, s.clock.Now())
	})
	if err != nil {
		return wrapStorageError(err, "failed to reset password")
	}

	if _, err := s.repo.PasswordResets().DeleteToken(ctx, payload.Email); err != nil {
		s.logger.Warn("ConfirmPasswordReset failed to consume token: %v", err)
	}

	s.emitAuthEvent(ctx, EventPasswordResetDone, s.actorFromUser(user), &user.ID, nil)

	return nil
}

// VerifyEmail confirms an address from a verification link. Repeat calls
// are accepted and report success without rewriting the timestamp.
func (s *Auther) VerifyEmail(ctx context.Context, email, presentedHash string) error {
	user, err := s.repo.Users().GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// same rejection as a wrong hash, unknown addresses stay unknowable
			return ErrVerificationInvalid
		}
		return wrapStorageError(err, "failed to look up account")
	}

	if !VerifyEmailHash(user.Email, presentedHash) {
		return ErrVerificationInvalid
	}

	first, err := s.repo.Users().MarkEmailVerified(ctx, user.ID, s.clock.Now())
	if err != nil {
		return wrapStorageError(err, "failed to mark email verified")
	}

	if first {
		s.emitAuthEvent(ctx, EventEmailVerified, s.actorFromUser(user), &user.ID, nil)
	}

	return nil
}

var _ IdentityProvider = (*Auther)(nil)

// VerifyIdentity implements IdentityProvider over the users store. Unlike
// Login it skips auditing and verification gates; it is the raw credential
// check embedders plug into their own flows.
func (s *Auther) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, wrapStorageError(err, "failed to look up account")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByIdentifier implements IdentityProvider.
func (s *Auther) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, wrapStorageError(err, "failed to look up account")
	}

	return NewIdentityFromUser(user), nil
}

// ResendVerification sends a fresh verification notification. Unknown
// addresses report success so callers cannot enumerate accounts, and
// already-verified accounts are a no-op.
func (s *Auther) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.Users().GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Debug("ResendVerification unknown address: %s", email)
			return nil
		}
		return wrapStorageError(err, "failed to look up account")
	}

	if user.HasVerifiedEmail() {
		return nil
	}

	if err := s.notifier.SendEmailVerification(ctx, user, EmailVerificationHash(user.Email)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send verification notification")
	}

	return nil
}

// SessionFromToken validates a raw token and projects it into a Session.
func (s *Auther) SessionFromToken(ctx context.Context, raw string) (Session, error) {
	claims, err := s.tokens.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}

	return sessionFromAuthClaims(claims), nil
}

// AccountFromSession resolves the session subject back to its account row.
func (s *Auther) AccountFromSession(ctx context.Context, session Session) (*User, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, session.GetUserID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, wrapStorageError(err, "failed to look up account")
	}

	return user, nil
}

func (s *Auther) loginResult(token string, claims *JWTClaims) *LoginResult {
	expiresIn := 0
	if exp := claims.Expires(); !exp.IsZero() {
		if iat := claims.IssuedAt(); !iat.IsZero() {
			expiresIn = int(exp.Sub(iat) / time.Second)
		}
	}

	return &LoginResult{
		Token:     token,
		Subject:   claims.Subject(),
		TokenType: "Bearer",
		ExpiresIn: expiresIn,
	}
}

// maybeRehashPassword upgrades a stored hash after a successful credential
// check when the configured bcrypt cost has changed. Failures only log; the
// login itself already succeeded.
func (s *Auther) maybeRehashPassword(ctx context.Context, user *User, password string) {
	if !PasswordNeedsRehash(user.PasswordHash) {
		return
	}

	hash, err := HashPassword(password)
	if err != nil {
		s.logger.Warn("failed to rehash password: %v", err)
		return
	}

	record := &User{ID: user.ID, PasswordHash: hash}
	if _, err := s.repo.Users().Update(ctx, record, repository.UpdateByID(user.ID.String())); err != nil {
		s.logger.Warn("failed to store rehashed password: %v", err)
		return
	}

	user.PasswordHash = hash
}

func (s *Auther) recordAttempt(ctx context.Context, user *User, payload LoginPayload, success bool) {
	attempt := LoginAttempt{
		Email:     payload.Email,
		IPAddress: payload.IP,
		UserAgent: payload.UserAgent,
		Success:   success,
	}
	if user != nil {
		id := user.ID
		attempt.UserID = &id
	}

	if err := s.repo.LoginLogs().Record(ctx, attempt); err != nil {
		s.logger.Warn("failed to record login attempt: %v", err)
	}
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType string, actor ActorRef, userID *uuid.UUID, metadata map[string]any) {
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}

	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{}
	}

	id := user.ID
	return ActorRef{
		ID:    &id,
		Email: user.Email,
	}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
