package caseflow

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func challengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestVerifyPKCE_RoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		verifier := GenerateSecret("", 32)
		assert.True(t, VerifyPKCE(verifier, challengeFor(verifier), CodeChallengeMethodS256))
	}
}

func TestVerifyPKCE_WrongVerifier(t *testing.T) {
	challenge := challengeFor("correct-verifier-correct-verifier-correct-verifier")
	assert.False(t, VerifyPKCE("wrong-verifier-wrong-verifier-wrong-verifier", challenge, CodeChallengeMethodS256))
}

func TestVerifyPKCE_RejectsUnsupportedMethods(t *testing.T) {
	verifier := "some-verifier-some-verifier-some-verifier-some"

	// "plain" must be rejected even when verifier equals challenge.
	assert.False(t, VerifyPKCE(verifier, verifier, "plain"))
	assert.False(t, VerifyPKCE(verifier, challengeFor(verifier), "plain"))
	assert.False(t, VerifyPKCE(verifier, challengeFor(verifier), "S512"))
	assert.False(t, VerifyPKCE(verifier, challengeFor(verifier), ""))
}

func TestVerifyPKCE_EmptyInputs(t *testing.T) {
	assert.False(t, VerifyPKCE("", "", CodeChallengeMethodS256))
	assert.False(t, VerifyPKCE("verifier", "", CodeChallengeMethodS256))
	assert.False(t, VerifyPKCE("", challengeFor("verifier"), CodeChallengeMethodS256))
}

func TestVerifyPKCE_RFCTestVector(t *testing.T) {
	// Appendix B of RFC 7636.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	challenge := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	assert.True(t, VerifyPKCE(verifier, challenge, CodeChallengeMethodS256))
}
