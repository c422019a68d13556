package auth

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoTokensIssued   = errors.New("no tokens have been issued for this session")
	ErrInvalidFlowState = errors.New("operation not allowed in current flow state")
)
