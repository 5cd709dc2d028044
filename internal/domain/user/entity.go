package user

import (
	"errors"
	"strings"
)

var (
	ErrInvalidUsername  = errors.New("username cannot be empty")
	ErrInvalidFirstName = errors.New("first name cannot be empty")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameTooLong  = errors.New("username is too long (max 64 characters)")
)

const MaxUsernameLength = 64

// User is a directory entry consulted by callers for access decisions.
// The booking engine never reads it.
type User struct {
	id        int64
	username  string
	firstName string
	role      Role
	isActive  bool
}

func NewUser(username, firstName string, role Role) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	if len(username) > MaxUsernameLength {
		return nil, ErrUsernameTooLong
	}

	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return nil, ErrInvalidFirstName
	}

	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	return &User{
		username:  username,
		firstName: firstName,
		role:      role,
		isActive:  true,
	}, nil
}

func ReconstructUser(id int64, username, firstName string, role Role, isActive bool) *User {
	return &User{
		id:        id,
		username:  username,
		firstName: firstName,
		role:      role,
		isActive:  isActive,
	}
}

func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return ErrInvalidRole
	}
	u.role = role
	return nil
}

func (u *User) Deactivate() {
	u.isActive = false
}

func (u *User) ID() int64         { return u.id }
func (u *User) Username() string  { return u.username }
func (u *User) FirstName() string { return u.firstName }
func (u *User) Role() Role        { return u.role }
func (u *User) IsActive() bool    { return u.isActive }
