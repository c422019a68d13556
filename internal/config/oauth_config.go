package config

import "time"

type OAuthConfig interface {
	GetAuthCodeTimeout() time.Duration
	GetTokenExpiry() time.Duration
	GetAudience() string
	GetScope() string
	GetKeyID() string
	GetSigningKeyPEM() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetAuthCodeTimeout() time.Duration {
	return 5 * time.Minute
}

func (OAuth) GetTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (OAuth) GetAudience() string {
	return GetEnv("OAUTH_AUDIENCE", "sso-flow-client")
}

func (OAuth) GetScope() string {
	return GetEnv("OAUTH_SCOPE", "openid profile")
}

func (OAuth) GetKeyID() string {
	return GetEnv("OAUTH_KEY_ID", "sso-flow-signing-key")
}

// GetSigningKeyPEM returns a PEM-encoded RSA private key to sign tokens
// with. When empty, an ephemeral key is generated at startup and tokens
// do not survive a restart.
func (OAuth) GetSigningKeyPEM() string {
	return GetEnv("OAUTH_SIGNING_KEY_PEM", "")
}
