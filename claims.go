package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes short-lived access tokens from long-lived refresh
// tokens; the two use independently configured TTLs.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// RequiredClaims is the default claim set enforced on every validation.
// A token missing any of these is treated as malformed.
var RequiredClaims = []string{"iss", "iat", "exp", "nbf", "sub", "jti"}

// AuthClaims represents structured JWT claims
type AuthClaims interface {
	Subject() string
	UserID() string
	Issuer() string
	Audience() []string
	Role() string
	Kind() TokenKind
	TokenID() string
	Expires() time.Time
	IssuedAt() time.Time
	NotBefore() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string         `json:"uid,omitempty"`
	UserRole  string         `json:"role,omitempty"`
	TokenKind TokenKind      `json:"knd,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Issuer returns the issuer claim
func (c *JWTClaims) Issuer() string {
	return c.RegisteredClaims.Issuer
}

// Audience returns the audience claim
func (c *JWTClaims) Audience() []string {
	return c.RegisteredClaims.Audience
}

// Role returns the global role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Kind returns the token kind; tokens minted before the kind claim existed
// count as access tokens.
func (c *JWTClaims) Kind() TokenKind {
	if c.TokenKind == "" {
		return TokenKindAccess
	}
	return c.TokenKind
}

// TokenID returns the jti used as the blacklist key
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// NotBefore returns the not-before time
func (c *JWTClaims) NotBefore() time.Time {
	if c.RegisteredClaims.NotBefore != nil {
		return c.RegisteredClaims.NotBefore.Time
	}
	return time.Time{}
}

// missingClaims reports which of the required claims are absent.
func (c *JWTClaims) missingClaims(required []string) []string {
	var missing []string
	for _, name := range required {
		present := false
		switch name {
		case "iss":
			present = c.RegisteredClaims.Issuer != ""
		case "iat":
			present = c.RegisteredClaims.IssuedAt != nil
		case "exp":
			present = c.RegisteredClaims.ExpiresAt != nil
		case "nbf":
			present = c.RegisteredClaims.NotBefore != nil
		case "sub":
			present = c.RegisteredClaims.Subject != ""
		case "jti":
			present = c.RegisteredClaims.ID != ""
		case "aud":
			present = len(c.RegisteredClaims.Audience) > 0
		}
		if !present {
			missing = append(missing, name)
		}
	}
	return missing
}

// ensureTokenID assigns a fresh jti when the claims carry none.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
