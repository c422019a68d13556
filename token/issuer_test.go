package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/ssoflow/sso-server/token"
)

func parseClaims(t *testing.T, signer *token.KeyPairSigner, raw string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.ParseWithClaims(raw, jwt.MapClaims{}, signer.GetVerificationKey)
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestIssueTokensClaims(t *testing.T) {
	issuer := testTokenIssuer(t)
	signer := testSigner(t)

	pair, err := issuer.IssueTokens(testUsername, "")
	require.NoError(t, err)

	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, 3600, pair.ExpiresIn)

	idClaims := parseClaims(t, signer, pair.IDToken)
	require.Equal(t, testIssuer, idClaims["iss"])
	require.Equal(t, testUsername, idClaims["sub"])
	require.Equal(t, testAudience, idClaims["aud"])
	require.NotEmpty(t, idClaims["jti"])
	require.NotContains(t, idClaims, "nonce")

	iat := int64(idClaims["iat"].(float64))
	exp := int64(idClaims["exp"].(float64))
	require.Equal(t, int64(3600), exp-iat)

	accessClaims := parseClaims(t, signer, pair.AccessToken)
	require.Equal(t, testIssuer, accessClaims["iss"])
	require.Equal(t, testAudience, accessClaims["aud"])
	require.Equal(t, testUsername, accessClaims["sub"])
	require.Equal(t, "openid profile", accessClaims["scope"])
	require.Equal(t, "user", accessClaims["token_type"])

	// the two tokens must not share a token ID
	require.NotEqual(t, idClaims["jti"], accessClaims["jti"])
}

func TestIssueTokensWithNonce(t *testing.T) {
	issuer := testTokenIssuer(t)
	signer := testSigner(t)

	pair, err := issuer.IssueTokens(testUsername, "random-nonce-value")
	require.NoError(t, err)

	idClaims := parseClaims(t, signer, pair.IDToken)
	require.Equal(t, "random-nonce-value", idClaims["nonce"])
}

func TestIssueTokensCustomExpiry(t *testing.T) {
	issuer := testTokenIssuer(t, token.WithTokenExpiry(15*time.Minute))

	pair, err := issuer.IssueTokens(testUsername, "")
	require.NoError(t, err)
	require.Equal(t, 900, pair.ExpiresIn)
}

func TestNewIssuerRequiresSigner(t *testing.T) {
	_, err := token.NewIssuer(nil, testIssuer, testAudience)
	require.Error(t, err)
}
