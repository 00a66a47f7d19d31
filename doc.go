// Package auth implements the stateful core of an authentication service:
// signed-token lifecycle management, password-reset token storage, and
// login-attempt auditing, composed behind a single orchestrator.
//
// Token lifecycle:
//   - TokenService issues HS256 JWTs in two kinds (access, refresh) with
//     independent TTLs. Every validation enforces the required claim set
//     (iss, iat, exp, nbf, sub, jti) and checks the jti against a durable
//     blacklist. Blacklisting supports a grace window so in-flight requests
//     carrying a freshly rotated token are not rejected mid-rotation.
//
// Password resets:
//   - PasswordResets stores single-use, time-bounded secrets keyed by email
//     with replace-on-request semantics: creating a new token deletes any
//     prior token for the same address inside one transaction.
//
// Auditing:
//   - LoginRecorder appends a row to login_logs for every authentication
//     attempt. Recording is best-effort; storage failures are logged and
//     swallowed so they can never fail the auth flow itself.
//
// The Auther type wires these together and exposes the operations an HTTP
// layer calls: Login, Register, Logout, Refresh, ChangePassword,
// RequestPasswordReset, ConfirmPasswordReset, and VerifyEmail. It reaches
// storage only through the injected RepositoryManager.
package auth
