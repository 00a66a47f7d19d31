package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenNotYetValid   = "TOKEN_NOT_YET_VALID"
	TextCodeTokenRevoked       = "TOKEN_REVOKED"
	TextCodeResetTokenInvalid  = "INVALID_OR_EXPIRED_RESET_TOKEN"
	TextCodeResetThrottled     = "RESET_THROTTLED"
	TextCodeValidationFailed   = "VALIDATION_FAILED"
	TextCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// ErrInvalidCredentials is the single caller-visible error for any failed
// credential check; unknown email and wrong password are indistinguishable.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailNotVerified is returned on login when verification is required and
// the account has not confirmed its address.
var ErrEmailNotVerified = goerrors.New("please verify your email address", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(goerrors.CodeForbidden)

// ErrTokenMalformed covers unparsable tokens, bad signatures, and tokens
// missing any of the required claims.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned once now is past expires-at plus leeway.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenNotYetValid is returned before not-before minus leeway.
var ErrTokenNotYetValid = goerrors.New("token is not valid yet", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenNotYetValid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenRevoked is returned when the jti is blacklisted and its grace
// period has elapsed.
var ErrTokenRevoked = goerrors.New("token has been revoked", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(goerrors.CodeUnauthorized)

// ErrResetTokenInvalid covers both unknown and expired reset secrets so the
// caller cannot tell which one happened.
var ErrResetTokenInvalid = goerrors.New("invalid or expired reset token", goerrors.CategoryValidation).
	WithTextCode(TextCodeResetTokenInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrVerificationInvalid covers both an unknown address and a wrong hash so a
// verification link cannot be used to confirm whether an account exists.
var ErrVerificationInvalid = goerrors.New("invalid verification hash", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrResetThrottled is returned when a reset token was already issued for the
// address within the configured throttle window.
var ErrResetThrottled = goerrors.New("please wait before requesting another reset", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeResetThrottled)

// ErrAccountNotFound stays inside the package boundary; public operations map
// it to ErrInvalidCredentials or a uniform success before returning.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrStorageUnavailable wraps storage faults that must surface as a server
// error; retry policy belongs to the infrastructure, not this package.
var ErrStorageUnavailable = goerrors.New("storage unavailable", goerrors.CategoryInternal).
	WithTextCode(TextCodeStorageUnavailable)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// ErrNoEmptyString rejects empty plaintext passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// wrapStorageError keeps the rich error if there is one, otherwise tags the
// failure as a storage fault.
func wrapStorageError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeStorageUnavailable)
}
