package sessions

import (
	"fmt"
	"sync"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface, indexed by session ID and by authorization code.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]FlowSession
	codes    map[string]string // auth code -> sessionID
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]FlowSession),
		codes:    make(map[string]string),
	}
}

// Upsert creates or updates a flow session and maintains the code index
func (r *InMemoryRepo) Upsert(sessionID string, session FlowSession) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[sessionID]; ok && existing.AuthCode != "" && existing.AuthCode != session.AuthCode {
		delete(r.codes, existing.AuthCode)
	}

	r.sessions[sessionID] = session
	if session.AuthCode != "" {
		r.codes[session.AuthCode] = sessionID
	}
	return nil
}

// Get retrieves a flow session by session ID
func (r *InMemoryRepo) Get(sessionID string) (FlowSession, error) {
	if sessionID == "" {
		return FlowSession{}, fmt.Errorf("sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return FlowSession{}, fmt.Errorf("session not found")
	}
	return session, nil
}

// GetByAuthCode retrieves the flow session an authorization code was
// issued for
func (r *InMemoryRepo) GetByAuthCode(code string) (FlowSession, error) {
	if code == "" {
		return FlowSession{}, fmt.Errorf("code is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	sessionID, ok := r.codes[code]
	if !ok {
		return FlowSession{}, fmt.Errorf("session not found")
	}

	session, ok := r.sessions[sessionID]
	if !ok {
		return FlowSession{}, fmt.Errorf("session not found")
	}
	return session, nil
}

// Delete removes a flow session and its code index entry
func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil // Already doesn't exist, no error
	}

	if session.AuthCode != "" {
		delete(r.codes, session.AuthCode)
	}
	delete(r.sessions, sessionID)
	return nil
}
