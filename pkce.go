package caseflow

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// CodeChallengeMethodS256 is the only PKCE method this server supports.
// "plain" is rejected at request validation and never reaches verification.
const CodeChallengeMethodS256 = "S256"

// VerifyPKCE validates a PKCE code verifier against the challenge stored at
// code issuance (RFC 7636 section 4.6). The comparison is constant-time so a
// mismatching verifier is indistinguishable, timing-wise, from a matching
// prefix.
func VerifyPKCE(codeVerifier, codeChallenge, method string) bool {
	if method != CodeChallengeMethodS256 {
		return false
	}
	if codeVerifier == "" || codeChallenge == "" {
		return false
	}

	sum := sha256.Sum256([]byte(codeVerifier))
	computed := base64.RawURLEncoding.EncodeToString(sum[:])

	return subtle.ConstantTimeCompare([]byte(computed), []byte(codeChallenge)) == 1
}
