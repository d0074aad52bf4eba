package tourdesk

// UserIdentity adapts a User into the Identity interface for token generation.
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

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// Role returns the user's role label at lookup time.
func (u UserIdentity) Role() RoleName {
	if u.user == nil {
		return ""
	}
	return u.user.RoleName()
}

// Status returns the user's status label at lookup time.
func (u UserIdentity) Status() StatusName {
	if u.user == nil {
		return ""
	}
	return u.user.StatusName()
}
