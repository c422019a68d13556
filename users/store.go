package users

import (
	"time"

	"github.com/rs/zerolog/log"
)

// dummyHash is compared against when a username is unknown, so that an
// unknown user costs the same bcrypt work as a wrong password.
var dummyHash = func() string {
	hash, err := HashPassword("credential-store-dummy-password")
	if err != nil {
		panic("failed to generate dummy hash: " + err.Error())
	}
	return hash
}()

// Store is the credential store: it owns registration and password
// verification on top of a UserRepo.
type Store struct {
	repo    UserRepo
	nowFunc func() time.Time
}

type StoreOption func(*Store)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func NewStore(repo UserRepo, options ...StoreOption) *Store {
	s := &Store{
		repo:    repo,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Register stores a new user with a salted bcrypt credential.
// Returns ErrDuplicateUser if the username is already taken.
func (s *Store) Register(username, password string) error {
	if _, err := s.repo.GetByUsername(username); err == nil {
		return ErrDuplicateUser
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	return s.repo.Insert(&User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.nowFunc(),
	})
}

// VerifyLogin checks a username/password pair. Unknown users and wrong
// passwords both return ErrInvalidCredentials; the distinction is only
// logged. bcrypt comparison is constant-time, and unknown users still
// pay the same hashing cost via dummyHash. A successful login records
// the user's last login time.
func (s *Store) VerifyLogin(username, password string) error {
	user, err := s.repo.GetByUsername(username)
	if err != nil {
		CheckPasswordHash(password, dummyHash)
		log.Debug().Str("username", username).Msg("login attempt for unknown user")
		return ErrInvalidCredentials
	}

	if !CheckPasswordHash(password, user.PasswordHash) {
		log.Debug().Str("username", username).Msg("login attempt with wrong password")
		return ErrInvalidCredentials
	}

	user.LastLogin = s.nowFunc()
	if err := s.repo.Update(user); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("failed to record last login")
	}
	return nil
}
