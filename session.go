package auth

import (
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the concrete Session built from validated token claims.
type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Kind           TokenKind      `json:"token_kind,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiration() *time.Time {
	return s.ExpirationDate
}

func (s *SessionObject) GetTokenKind() TokenKind {
	return s.Kind
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// sessionFromAuthClaims maps validated claims onto a SessionObject.
func sessionFromAuthClaims(claims AuthClaims) *SessionObject {
	session := &SessionObject{
		UserID:   claims.UserID(),
		Issuer:   claims.Issuer(),
		Audience: claims.Audience(),
		Kind:     claims.Kind(),
		Data: map[string]any{
			"role": claims.Role(),
			"jti":  claims.TokenID(),
		},
	}

	if iat := claims.IssuedAt(); !iat.IsZero() {
		t := iat
		session.IssuedAt = &t
	}

	if exp := claims.Expires(); !exp.IsZero() {
		t := exp
		session.ExpirationDate = &t
	}

	return session
}
