package auth

import "time"

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() int  // minutes
	GetRefreshTokenTTL() int // minutes
	GetLeeway() int          // seconds
	GetRequiredClaims() []string
	GetBlacklistEnabled() bool
	GetBlacklistGracePeriod() int // seconds
	GetResetTokenLength() int
	GetResetTokenExpiry() int // minutes
	GetResetThrottle() string // duration pattern, empty disables throttling
	GetResetURL() string
	GetEmailVerificationEnabled() bool
}

// RateLimit declares a request threshold for one endpoint. The package does
// not enforce these; they are configuration surface for the HTTP layer.
type RateLimit struct {
	Attempts int
	Window   time.Duration
}

// Features lists toggles that are declared but have no behavior in this
// package; see the feature gate helpers for the matching extension points.
type Features struct {
	TwoFactorAuth   bool
	SocialLogin     bool
	AccountLockout  bool
	PasswordHistory bool
}

// SimpleConfig is a plain-struct Config implementation with the module's
// stock defaults.
type SimpleConfig struct {
	SigningKey               string
	SigningMethod            string
	Issuer                   string
	Audience                 []string
	AccessTokenTTL           int // minutes
	RefreshTokenTTL          int // minutes
	Leeway                   int // seconds
	RequiredClaimNames       []string
	BlacklistEnabled         bool
	BlacklistGracePeriod     int // seconds
	ResetTokenLength         int
	ResetTokenExpiry         int    // minutes
	ResetThrottle            string // duration pattern, empty disables throttling
	ResetURL                 string
	EmailVerificationEnabled bool
	RateLimits               map[string]RateLimit
	Features                 Features
}

// DefaultIssuer stamps iss on tokens when no issuer is configured. The
// required-claims set includes iss, so an empty issuer would make every
// minted token fail its own validation.
const DefaultIssuer = "go-auth-module"

// NewDefaultConfig returns a SimpleConfig carrying the stock defaults:
// 60 minute access tokens, 14 day refresh tokens, HS256, no leeway,
// blacklist on with zero grace, 64-char reset secrets valid 60 minutes.
func NewDefaultConfig(signingKey string) *SimpleConfig {
	return &SimpleConfig{
		SigningKey:           signingKey,
		SigningMethod:        "HS256",
		Issuer:               DefaultIssuer,
		AccessTokenTTL:       60,
		RefreshTokenTTL:      20160,
		Leeway:               0,
		RequiredClaimNames:   RequiredClaims,
		BlacklistEnabled:     true,
		BlacklistGracePeriod: 0,
		ResetTokenLength:     64,
		ResetTokenExpiry:     60,
		ResetURL:             "/password/reset",

		EmailVerificationEnabled: true,

		RateLimits: map[string]RateLimit{
			"login":           {Attempts: 5, Window: time.Minute},
			"register":        {Attempts: 3, Window: time.Minute},
			"forgot_password": {Attempts: 3, Window: time.Minute},
			"reset_password":  {Attempts: 3, Window: time.Minute},
		},

		Features: Features{
			AccountLockout: true,
		},
	}
}

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c *SimpleConfig) GetSigningMethod() string { return c.SigningMethod }

func (c *SimpleConfig) GetIssuer() string {
	if c.Issuer == "" {
		return DefaultIssuer
	}
	return c.Issuer
}

func (c *SimpleConfig) GetAudience() []string { return c.Audience }

func (c *SimpleConfig) GetAccessTokenTTL() int {
	if c.AccessTokenTTL <= 0 {
		return 60
	}
	return c.AccessTokenTTL
}

func (c *SimpleConfig) GetRefreshTokenTTL() int {
	if c.RefreshTokenTTL <= 0 {
		return 20160
	}
	return c.RefreshTokenTTL
}

func (c *SimpleConfig) GetLeeway() int { return c.Leeway }

func (c *SimpleConfig) GetRequiredClaims() []string {
	if len(c.RequiredClaimNames) == 0 {
		return RequiredClaims
	}
	return c.RequiredClaimNames
}

func (c *SimpleConfig) GetBlacklistEnabled() bool { return c.BlacklistEnabled }

func (c *SimpleConfig) GetBlacklistGracePeriod() int { return c.BlacklistGracePeriod }

func (c *SimpleConfig) GetResetThrottle() string { return c.ResetThrottle }

func (c *SimpleConfig) GetResetURL() string { return c.ResetURL }

func (c *SimpleConfig) GetEmailVerificationEnabled() bool { return c.EmailVerificationEnabled }

func (c *SimpleConfig) GetResetTokenLength() int {
	if c.ResetTokenLength <= 0 {
		return 64
	}
	return c.ResetTokenLength
}

func (c *SimpleConfig) GetResetTokenExpiry() int {
	if c.ResetTokenExpiry <= 0 {
		return 60
	}
	return c.ResetTokenExpiry
}

var _ Config = (*SimpleConfig)(nil)
