package auth

// UserIdentity is an immutable Identity snapshot taken from a User record.
// Copying the fields up front means later mutations to the record do not
// leak into tokens minted from the snapshot.
type UserIdentity struct {
	id       string
	username string
	email    string
	role     string
	verified bool
}

// NewIdentityFromUser captures the identity attributes of user. A nil user
// yields a nil Identity.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}

	return UserIdentity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
		role:     string(user.Role),
		verified: user.HasVerifiedEmail(),
	}
}

func (u UserIdentity) ID() string { return u.id }

func (u UserIdentity) Username() string { return u.username }

func (u UserIdentity) Email() string { return u.email }

func (u UserIdentity) Role() string { return u.role }

// EmailVerified reports whether the account had confirmed its address when
// the snapshot was taken.
func (u UserIdentity) EmailVerified() bool { return u.verified }
