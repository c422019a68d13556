package token

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Check statuses
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

const skippedMalformedInput = "skipped: malformed input"

// VerificationCheck represents a single verification check result
type VerificationCheck struct {
	Check   string `json:"check"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VerificationResult is the full checklist produced by a verification
// call. Failures are data, not errors: every check runs regardless of
// earlier failures so the caller sees the complete diagnostic picture.
type VerificationResult struct {
	Verified bool                `json:"verified"`
	Checks   []VerificationCheck `json:"checks"`
	Message  string              `json:"message"`
}

func newVerificationResult() *VerificationResult {
	return &VerificationResult{
		Verified: true,
		Checks:   make([]VerificationCheck, 0),
	}
}

func (vr *VerificationResult) addCheck(check, status, message string) {
	vr.Checks = append(vr.Checks, VerificationCheck{
		Check:   check,
		Status:  status,
		Message: message,
	})
	if status == StatusFailed {
		vr.Verified = false
	}
}

func (vr *VerificationResult) finalise() {
	if vr.Verified {
		vr.Message = "Token verified successfully"
	} else {
		vr.Message = "Invalid token"
	}
}

// Verifier independently validates token structure, signature, expiry
// and claims against the configured expectations. It never trusts
// anything the issuing side reports.
type Verifier struct {
	method   jwt.SigningMethod
	key      any
	issuer   string
	audience string
	nowFunc  func() time.Time
}

type VerifierOption func(*Verifier)

// WithVerifierNowFunc sets the now time function (primarily for testing)
func WithVerifierNowFunc(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.nowFunc = now
	}
}

// NewVerifier creates a verifier bound to a signing method, its
// verification key and the expected issuer/audience values.
func NewVerifier(method jwt.SigningMethod, key any, issuer, audience string, options ...VerifierOption) *Verifier {
	v := &Verifier{
		method:   method,
		key:      key,
		issuer:   issuer,
		audience: audience,
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// Verify runs the full checklist over both tokens. expectedSubject is
// the username of the originating session; the subject consistency
// check applies to the ID token only. The overall result is verified
// only if every check passed.
func (v *Verifier) Verify(idToken, accessToken, expectedSubject string) *VerificationResult {
	result := newVerificationResult()
	v.checkToken(result, "ID token", idToken, expectedSubject)
	v.checkToken(result, "Access token", accessToken, "")
	result.finalise()
	return result
}

// decodedToken holds whatever was decodable from a raw token. Later
// checks operate on the parts that survived, never on the raw string.
type decodedToken struct {
	signingInput string
	signature    []byte
	claims       jwt.MapClaims
	structureErr error
	signatureOK  bool // signature segment decoded
	claimsOK     bool // payload segment decoded and parsed
}

func (v *Verifier) checkToken(result *VerificationResult, label, raw, expectedSubject string) {
	dec := decodeToken(raw)

	// 1. Structural check
	if dec.structureErr != nil {
		result.addCheck(label+" structure", StatusFailed, dec.structureErr.Error())
	} else {
		result.addCheck(label+" structure", StatusPassed, "")
	}

	// 2. Signature check
	switch {
	case !dec.signatureOK:
		result.addCheck(label+" signature", StatusFailed, skippedMalformedInput)
	case v.method.Verify(dec.signingInput, dec.signature, v.key) != nil:
		result.addCheck(label+" signature", StatusFailed, "signature does not match signed content")
	default:
		result.addCheck(label+" signature", StatusPassed, "")
	}

	// 3. Expiry check
	switch {
	case !dec.claimsOK:
		result.addCheck(label+" expiry", StatusFailed, skippedMalformedInput)
	default:
		exp, ok := numericClaim(dec.claims, "exp")
		switch {
		case !ok:
			result.addCheck(label+" expiry", StatusFailed, "missing exp claim")
		case v.nowFunc().Unix() > exp:
			result.addCheck(label+" expiry", StatusFailed,
				fmt.Sprintf("token expired at %s", time.Unix(exp, 0).UTC().Format(time.RFC3339)))
		default:
			result.addCheck(label+" expiry", StatusPassed, "")
		}
	}

	// 4. Issuer and audience checks
	if !dec.claimsOK {
		result.addCheck(label+" issuer", StatusFailed, skippedMalformedInput)
		result.addCheck(label+" audience", StatusFailed, skippedMalformedInput)
	} else {
		if iss, _ := dec.claims["iss"].(string); iss != v.issuer {
			result.addCheck(label+" issuer", StatusFailed, "issuer mismatch")
		} else {
			result.addCheck(label+" issuer", StatusPassed, "")
		}
		if !audienceMatches(dec.claims["aud"], v.audience) {
			result.addCheck(label+" audience", StatusFailed, "audience mismatch")
		} else {
			result.addCheck(label+" audience", StatusPassed, "")
		}
	}

	// 5. Subject consistency check (ID token only)
	if expectedSubject == "" {
		return
	}
	switch {
	case !dec.claimsOK:
		result.addCheck(label+" subject", StatusFailed, skippedMalformedInput)
	default:
		if sub, _ := dec.claims["sub"].(string); sub != expectedSubject {
			result.addCheck(label+" subject", StatusFailed, "subject mismatch")
		} else {
			result.addCheck(label+" subject", StatusPassed, "")
		}
	}
}

func decodeToken(raw string) decodedToken {
	dec := decodedToken{}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		dec.structureErr = fmt.Errorf("token must have three dot-separated segments, got %d", len(parts))
		return dec
	}
	// the signature covers the unpadded wire form of header.payload
	dec.signingInput = strings.TrimRight(parts[0], "=") + "." + strings.TrimRight(parts[1], "=")

	headerJSON, err := decodeSegment(parts[0])
	if err != nil {
		dec.structureErr = fmt.Errorf("header segment is not valid base64url")
	} else {
		var header map[string]any
		if err := json.Unmarshal(headerJSON, &header); err != nil {
			dec.structureErr = fmt.Errorf("header segment is not a valid claim set")
		}
	}

	payloadJSON, err := decodeSegment(parts[1])
	if err != nil {
		if dec.structureErr == nil {
			dec.structureErr = fmt.Errorf("payload segment is not valid base64url")
		}
	} else {
		claims := jwt.MapClaims{}
		if err := json.Unmarshal(payloadJSON, &claims); err != nil {
			if dec.structureErr == nil {
				dec.structureErr = fmt.Errorf("payload segment is not a valid claim set")
			}
		} else {
			dec.claims = claims
			dec.claimsOK = true
		}
	}

	signature, err := decodeSegment(parts[2])
	if err != nil {
		if dec.structureErr == nil {
			dec.structureErr = fmt.Errorf("signature segment is not valid base64url")
		}
	} else {
		dec.signature = signature
		dec.signatureOK = true
	}

	return dec
}

// decodeSegment decodes a base64url segment, tolerating padded input
// even though the wire format carries none.
func decodeSegment(segment string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(segment, "="))
}

func numericClaim(claims jwt.MapClaims, name string) (int64, bool) {
	switch value := claims[name].(type) {
	case float64:
		return int64(value), true
	case json.Number:
		n, err := value.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

func audienceMatches(claim any, expected string) bool {
	switch aud := claim.(type) {
	case string:
		return aud == expected
	case []any:
		for _, entry := range aud {
			if s, ok := entry.(string); ok && s == expected {
				return true
			}
		}
	}
	return false
}
