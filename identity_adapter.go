package voteclient

// UserIdentity adapts a User into the Identity interface for callers that
// only need the read-only identity view.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's ID.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID
}

// Name returns the user's display name.
func (u UserIdentity) Name() string {
	if u.user == nil {
		return ""
	}
	return u.user.FullName
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// Role returns the user's normalized role.
func (u UserIdentity) Role() string {
	if u.user == nil {
		return ""
	}
	return u.user.Role
}
