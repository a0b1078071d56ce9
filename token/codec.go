package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrSecretMissing reports construction without a signing secret.
	ErrSecretMissing = errors.New("token: signing secret not configured")
	// ErrTTLInvalid reports construction with a non-positive lifetime.
	ErrTTLInvalid = errors.New("token: ttl must be positive")
)

type payload struct {
	Exp int64 `json:"exp"`
}

// Codec issues and verifies session tokens. The signing key is held for the
// process lifetime; a Codec is immutable after New and safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a Codec from the signing secret and token lifetime. An empty
// secret is a configuration error, not a per-request condition.
func New(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, ErrSecretMissing
	}
	if ttl <= 0 {
		return nil, ErrTTLInvalid
	}
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue returns a fresh token expiring ttl from now. The caller owns transport
// (typically an HTTP-only cookie).
func (c *Codec) Issue() (string, error) {
	if c == nil || len(c.secret) == 0 {
		return "", ErrSecretMissing
	}

	body, err := json.Marshal(payload{Exp: c.now().Add(c.ttl).Unix()})
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(body)
	sig := c.sign(encoded)
	return encoded + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify reports whether value is a well-formed token with a valid signature
// and an expiry strictly in the future. Every failure path — wrong segment
// count, decode error, signature mismatch, missing or non-numeric exp, expired
// token — collapses to false; Verify never panics and never returns an error.
func (c *Codec) Verify(value string) bool {
	if c == nil || len(c.secret) == 0 {
		return false
	}

	parts := strings.Split(value, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	// Constant-time digest comparison: recompute the MAC over segment one and
	// compare digest bytes, never the candidate strings directly.
	if !hmac.Equal(sig, c.sign(parts[0])) {
		return false
	}

	body, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	var p struct {
		Exp *float64 `json:"exp"`
	}
	if err := json.Unmarshal(body, &p); err != nil || p.Exp == nil {
		return false
	}

	return *p.Exp > float64(c.now().Unix())
}

func (c *Codec) sign(encodedPayload string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encodedPayload))
	return mac.Sum(nil)
}
