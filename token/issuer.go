package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TokenPair is the response from a successful code exchange. Both
// tokens are self-contained bearer tokens; nothing is kept server-side
// after issuance.
type TokenPair struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Issuer builds and signs ID and access tokens. The signing key is
// process-wide, initialised once at startup and read-only thereafter.
type Issuer struct {
	signer      Signer
	issuer      string
	audience    string
	scope       string
	tokenExpiry time.Duration
	nowFunc     func() time.Time
}

type IssuerOption func(*Issuer)

// WithTokenExpiry overrides the default one hour token lifetime
func WithTokenExpiry(expiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.tokenExpiry = expiry
	}
}

// WithScope sets the scope claim placed in access tokens
func WithScope(scope string) IssuerOption {
	return func(i *Issuer) {
		i.scope = scope
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func NewIssuer(signer Signer, issuer, audience string, options ...IssuerOption) (*Issuer, error) {
	if signer == nil {
		return nil, errors.New("[NewIssuer] signer is required")
	}

	i := &Issuer{
		signer:      signer,
		issuer:      issuer,
		audience:    audience,
		scope:       "openid profile",
		tokenExpiry: time.Hour,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i, nil
}

// IssueTokens creates a signed ID token and access token for the user.
// The ID token carries identity claims; the access token carries the
// granted scope instead.
func (i *Issuer) IssueTokens(username, nonce string) (*TokenPair, error) {
	now := i.nowFunc()
	exp := now.Add(i.tokenExpiry)

	idClaims := jwt.MapClaims{
		"iss": i.issuer,
		"sub": username,
		"aud": i.audience,
		"iat": now.Unix(),
		"exp": exp.Unix(),
		"jti": uuid.New().String(),
	}
	if nonce != "" {
		idClaims["nonce"] = nonce
	}

	idToken, err := i.signer.Sign(idClaims)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.IssueTokens] sign id token")
	}

	accessClaims := jwt.MapClaims{
		"iss":        i.issuer,
		"sub":        username,
		"aud":        i.audience,
		"scope":      i.scope,
		"token_type": "user",
		"iat":        now.Unix(),
		"exp":        exp.Unix(),
		"jti":        uuid.New().String(),
	}

	accessToken, err := i.signer.Sign(accessClaims)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.IssueTokens] sign access token")
	}

	return &TokenPair{
		IDToken:     idToken,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(i.tokenExpiry.Seconds()),
	}, nil
}
