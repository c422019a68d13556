package repoinmemory

import (
	"sync"

	"github.com/ssoflow/sso-server/users"
)

var _ users.UserRepo = (*InMemoryUserRepo)(nil)

// InMemoryUserRepo is a thread-safe in-memory implementation of UserRepo
type InMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*users.User
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		users: make(map[string]*users.User),
	}
}

func (r *InMemoryUserRepo) Insert(user *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return users.ErrDuplicateUser
	}

	// Store a copy to prevent external modifications
	u := *user
	r.users[user.Username] = &u
	return nil
}

func (r *InMemoryUserRepo) Update(user *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; !ok {
		return users.ErrUserNotFound
	}

	u := *user
	r.users[user.Username] = &u
	return nil
}

func (r *InMemoryUserRepo) GetByUsername(username string) (*users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[username]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (r *InMemoryUserRepo) Delete(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[username]; !ok {
		return users.ErrUserNotFound
	}
	delete(r.users, username)
	return nil
}
