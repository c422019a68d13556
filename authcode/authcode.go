package authcode

import "time"

// AuthorizationCode is a single-use, short-lived code bound to an
// authenticated user.
type AuthorizationCode struct {
	Code      string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Consumed  bool
}

// IsExpired reports whether the code has passed its expiry at the given time
func (a *AuthorizationCode) IsExpired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}
