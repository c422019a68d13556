package authcode

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	codeGenerationLength = 32 // 256 bits of entropy
	defaultCodeTTL       = 5 * time.Minute
)

// Issuer mints and redeems authorization codes. It is the sole owner of
// the code table and the only mutator of the Consumed flag.
//
// Consumed codes are retained until their expiry so that a replayed code
// surfaces ErrCodeAlreadyUsed rather than ErrCodeNotFound; expired
// entries are evicted on access and by Sweep.
type Issuer struct {
	mu      sync.Mutex
	codes   map[string]*AuthorizationCode
	ttl     time.Duration
	nowFunc func() time.Time
}

type IssuerOption func(*Issuer)

// WithTTL overrides the default five minute code lifetime
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.ttl = ttl
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func NewIssuer(options ...IssuerOption) *Issuer {
	i := &Issuer{
		codes:   make(map[string]*AuthorizationCode),
		ttl:     defaultCodeTTL,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Issue mints a fresh code bound to username. The code value is unique
// among currently live codes.
func (i *Issuer) Issue(username string) (*AuthorizationCode, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.nowFunc()
	i.evictExpiredLocked(now)

	var code string
	for {
		bytes := make([]byte, codeGenerationLength)
		if _, err := rand.Read(bytes); err != nil {
			return nil, errors.Wrap(err, "[Issuer.Issue] rand.Read")
		}
		code = base64.RawURLEncoding.EncodeToString(bytes)
		if _, exists := i.codes[code]; !exists {
			break
		}
	}

	authCode := &AuthorizationCode{
		Code:      code,
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}
	i.codes[code] = authCode

	copied := *authCode
	return &copied, nil
}

// Redeem atomically checks and consumes a code, returning the bound
// username. Under concurrent redemption of the same code exactly one
// caller succeeds; the rest observe ErrCodeAlreadyUsed.
func (i *Issuer) Redeem(code string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	authCode, exists := i.codes[code]
	if !exists {
		return "", ErrCodeNotFound
	}

	if authCode.IsExpired(i.nowFunc()) {
		delete(i.codes, code)
		return "", ErrCodeExpired
	}

	if authCode.Consumed {
		return "", ErrCodeAlreadyUsed
	}

	authCode.Consumed = true
	return authCode.Username, nil
}

// Sweep removes expired codes. Eviction also happens passively on
// access, so calling Sweep is an optimisation, not a requirement.
func (i *Issuer) Sweep() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.evictExpiredLocked(i.nowFunc())
}

// Len returns the number of stored codes, live or consumed
func (i *Issuer) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.codes)
}

func (i *Issuer) evictExpiredLocked(now time.Time) {
	for code, authCode := range i.codes {
		if authCode.IsExpired(now) {
			delete(i.codes, code)
		}
	}
}
