package users

import "errors"

var (
	ErrDuplicateUser = errors.New("user already exists")
	ErrUserNotFound  = errors.New("user not found")

	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type UserRepo interface {
	Insert(user *User) error
	Update(user *User) error
	GetByUsername(username string) (*User, error)
	Delete(username string) error
}
