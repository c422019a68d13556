package token_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ssoflow/sso-server/token"
)

// tamperPayload rewrites one claim in the payload segment without
// re-signing, leaving the token structurally valid.
func tamperPayload(t *testing.T, raw string) string {
	t.Helper()

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)

	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	claims := map[string]any{}
	require.NoError(t, json.Unmarshal(payloadJSON, &claims))
	claims["tampered"] = true

	modified, err := json.Marshal(claims)
	require.NoError(t, err)

	parts[1] = base64.RawURLEncoding.EncodeToString(modified)
	return strings.Join(parts, ".")
}

func issuePair(t *testing.T, options ...token.IssuerOption) *token.TokenPair {
	t.Helper()
	pair, err := testTokenIssuer(t, options...).IssueTokens(testUsername, "")
	require.NoError(t, err)
	return pair
}

func TestVerifyRoundTrip(t *testing.T) {
	pair := issuePair(t)
	verifier := testVerifier(t)

	result := verifier.Verify(pair.IDToken, pair.AccessToken, testUsername)

	require.True(t, result.Verified)
	require.Equal(t, "Token verified successfully", result.Message)
	require.Len(t, result.Checks, 11) // six ID token checks, five access token checks
	for _, check := range result.Checks {
		require.Equal(t, token.StatusPassed, check.Status, "check %q failed: %s", check.Check, check.Message)
	}
}

// Flipping the payload breaks only the signature: structure and expiry
// still verify against the decoded content.
func TestVerifyTamperedPayload(t *testing.T) {
	pair := issuePair(t)
	verifier := testVerifier(t)

	result := verifier.Verify(tamperPayload(t, pair.IDToken), pair.AccessToken, testUsername)

	require.False(t, result.Verified)
	require.Equal(t, "Invalid token", result.Message)

	require.Equal(t, token.StatusPassed, checkByName(t, result, "ID token structure").Status)
	require.Equal(t, token.StatusFailed, checkByName(t, result, "ID token signature").Status)
	require.Equal(t, token.StatusPassed, checkByName(t, result, "ID token expiry").Status)
	require.Equal(t, token.StatusPassed, checkByName(t, result, "ID token issuer").Status)
	require.Equal(t, token.StatusPassed, checkByName(t, result, "ID token subject").Status)
	require.Equal(t, token.StatusPassed, checkByName(t, result, "Access token signature").Status)
}

// A structurally broken token fails every check, with later checks
// reporting skipped input rather than panicking.
func TestVerifyMalformedToken(t *testing.T) {
	pair := issuePair(t)
	verifier := testVerifier(t)

	result := verifier.Verify("not-a-jwt", pair.AccessToken, testUsername)

	require.False(t, result.Verified)

	structure := checkByName(t, result, "ID token structure")
	require.Equal(t, token.StatusFailed, structure.Status)
	require.Contains(t, structure.Message, "three dot-separated segments")

	for _, name := range []string{"ID token signature", "ID token expiry", "ID token issuer", "ID token audience", "ID token subject"} {
		check := checkByName(t, result, name)
		require.Equal(t, token.StatusFailed, check.Status)
		require.Equal(t, "skipped: malformed input", check.Message)
	}

	// the access token is untouched and still fully verifies
	for _, name := range []string{"Access token structure", "Access token signature", "Access token expiry"} {
		require.Equal(t, token.StatusPassed, checkByName(t, result, name).Status)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	pair := issuePair(t, token.WithNowFunc(func() time.Time { return past }))
	verifier := testVerifier(t)

	result := verifier.Verify(pair.IDToken, pair.AccessToken, testUsername)

	require.False(t, result.Verified)
	require.Equal(t, token.StatusFailed, checkByName(t, result, "ID token expiry").Status)
	require.Equal(t, token.StatusFailed, checkByName(t, result, "Access token expiry").Status)
	// signature remains intact even though the token has expired
	require.Equal(t, token.StatusPassed, checkByName(t, result, "ID token signature").Status)
}

func TestVerifyIssuerAndAudienceMismatch(t *testing.T) {
	pair := issuePair(t)
	signer := testSigner(t)
	verifier := token.NewVerifier(signer.GetSigningMethod(), signer.PublicKey(), "https://other-issuer.test", "other-audience")

	result := verifier.Verify(pair.IDToken, pair.AccessToken, testUsername)

	require.False(t, result.Verified)
	require.Equal(t, token.StatusFailed, checkByName(t, result, "ID token issuer").Status)
	require.Equal(t, token.StatusFailed, checkByName(t, result, "ID token audience").Status)
	require.Equal(t, token.StatusFailed, checkByName(t, result, "Access token issuer").Status)
	require.Equal(t, token.StatusFailed, checkByName(t, result, "Access token audience").Status)
	require.Equal(t, token.StatusPassed, checkByName(t, result, "ID token signature").Status)
}

func TestVerifySubjectMismatch(t *testing.T) {
	pair := issuePair(t)
	verifier := testVerifier(t)

	result := verifier.Verify(pair.IDToken, pair.AccessToken, "bob")

	require.False(t, result.Verified)
	subject := checkByName(t, result, "ID token subject")
	require.Equal(t, token.StatusFailed, subject.Status)
	require.Equal(t, "subject mismatch", subject.Message)
}

func TestVerifyTokensWithPaddedSegments(t *testing.T) {
	pair := issuePair(t)
	verifier := testVerifier(t)

	// consumers may re-pad segments before sending them back
	pad := func(raw string) string {
		parts := strings.Split(raw, ".")
		for i, part := range parts {
			if n := len(part) % 4; n != 0 {
				parts[i] = part + strings.Repeat("=", 4-n)
			}
		}
		return strings.Join(parts, ".")
	}

	result := verifier.Verify(pad(pair.IDToken), pair.AccessToken, testUsername)
	require.Equal(t, token.StatusPassed, checkByName(t, result, "ID token structure").Status)
	require.Equal(t, token.StatusPassed, checkByName(t, result, "ID token signature").Status)
}
