package token_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssoflow/sso-server/token"
	"github.com/ssoflow/sso-server/token/keys"
)

const (
	testIssuer   = "https://sso.test"
	testAudience = "sso-flow-client"
	testKeyID    = "test-signing-key"
	testUsername = "alice"
)

var (
	keyPairOnce sync.Once
	keyPair     *keys.KeyPair
	keyPairErr  error
)

// testKeyPair generates one RSA key pair per test binary; 2048 bit key
// generation is too slow to repeat per test.
func testKeyPair(t *testing.T) *keys.KeyPair {
	t.Helper()
	keyPairOnce.Do(func() {
		keyPair, keyPairErr = keys.GenerateRSAKeyPair(testKeyID, 2048)
	})
	require.NoError(t, keyPairErr)
	return keyPair
}

func testSigner(t *testing.T) *token.KeyPairSigner {
	t.Helper()
	return token.NewKeyPairSigner(testKeyPair(t))
}

func testTokenIssuer(t *testing.T, options ...token.IssuerOption) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer(testSigner(t), testIssuer, testAudience, options...)
	require.NoError(t, err)
	return issuer
}

func testVerifier(t *testing.T, options ...token.VerifierOption) *token.Verifier {
	t.Helper()
	signer := testSigner(t)
	return token.NewVerifier(signer.GetSigningMethod(), signer.PublicKey(), testIssuer, testAudience, options...)
}

func checkByName(t *testing.T, result *token.VerificationResult, name string) token.VerificationCheck {
	t.Helper()
	for _, check := range result.Checks {
		if check.Check == name {
			return check
		}
	}
	t.Fatalf("check %q not found in result", name)
	return token.VerificationCheck{}
}
