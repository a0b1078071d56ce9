package password

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Verifier performs constant-time comparison of a submitted credential against
// the configured access password. It is a pure function of (submitted value,
// reference value, signing key) with no observable side effects.
type Verifier struct {
	key      []byte
	expected string
}

// NewVerifier builds a Verifier from the token signing secret and the
// configured access password. An empty password is permitted at construction;
// Verify then rejects everything.
func NewVerifier(signingSecret, accessPassword string) *Verifier {
	return &Verifier{
		key:      []byte(signingSecret),
		expected: accessPassword,
	}
}

// Verify reports whether submitted matches the configured access password.
// Returns false immediately when no reference password or signing key is
// configured (fail closed). The comparison is between HMAC digests of the two
// values, never the strings themselves.
func (v *Verifier) Verify(submitted string) bool {
	if v == nil || v.expected == "" || len(v.key) == 0 {
		return false
	}
	return hmac.Equal(v.digest(submitted), v.digest(v.expected))
}

func (v *Verifier) digest(value string) []byte {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(value))
	return mac.Sum(nil)
}
