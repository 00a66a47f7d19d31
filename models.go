package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest is a guest role (ie. view)
	RoleGuest UserRole = "guest"
	// RoleMember is a member (i.e. view, edit)
	RoleMember UserRole = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin UserRole = "admin"
)

// User is the account model. The package reads and writes password_hash and
// email_verified_at through the Users repository; account ownership beyond
// that stays with the embedding application.
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role            UserRole       `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName       string         `bun:"first_name" json:"first_name,omitempty"`
	LastName        string         `bun:"last_name" json:"last_name,omitempty"`
	Username        string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email           string         `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone           string         `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash    string         `bun:"password_hash" json:"-"`
	EmailVerifiedAt *time.Time     `bun:"email_verified_at,nullzero" json:"email_verified_at,omitempty"`
	LoggedInAt      *time.Time     `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	Metadata        map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt       *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasVerifiedEmail reports whether the account confirmed its address.
func (u *User) HasVerifiedEmail() bool {
	return u != nil && u.EmailVerifiedAt != nil
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// PasswordResetToken is a single-use reset secret keyed by email. At most one
// active row exists per address; creating a new one replaces any prior row.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`
	Email         string    `bun:"email,notnull" json:"email"`
	Token         string    `bun:"token,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// ExpiresAt computes the expiry instant for a given lifetime in minutes.
func (t *PasswordResetToken) ExpiresAt(expiryMinutes int) time.Time {
	return t.CreatedAt.Add(time.Duration(expiryMinutes) * time.Minute)
}

// LoginLog is one append-only audit row per authentication attempt. UserID is
// nil when the presented email matched no account.
type LoginLog struct {
	bun.BaseModel `bun:"table:login_logs,alias:llg"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,nullzero,type:uuid" json:"user_id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email"`
	IPAddress     string     `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	Success       bool       `bun:"success,notnull" json:"success"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// BlacklistEntry marks a jti as revoked. The token remains usable until
// GracePeriodEnd; after ExpiresAt the entry is garbage and can be swept.
type BlacklistEntry struct {
	bun.BaseModel  `bun:"table:token_blacklist,alias:tbl"`
	JTI            string    `bun:"jti,pk" json:"jti"`
	BlacklistedAt  time.Time `bun:"blacklisted_at,notnull" json:"blacklisted_at"`
	GracePeriodEnd time.Time `bun:"grace_period_end,notnull" json:"grace_period_end"`
	ExpiresAt      time.Time `bun:"expires_at,notnull" json:"expires_at"`
}

// Revoked reports whether the grace window has elapsed at the given instant.
func (e *BlacklistEntry) Revoked(now time.Time) bool {
	return e != nil && !now.Before(e.GracePeriodEnd)
}
