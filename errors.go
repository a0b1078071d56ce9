package propgate

import "errors"

var (
	// ErrSecretMissing reports that no token signing secret was configured.
	// It is a startup error surfaced by Build, not a per-request error.
	ErrSecretMissing = errors.New("signing secret not configured")
	// ErrTokenTTLInvalid reports a non-positive token lifetime.
	ErrTokenTTLInvalid = errors.New("token ttl must be positive")
	// ErrPolicyInvalid reports a rate-limit policy with a non-positive limit
	// or window.
	ErrPolicyInvalid = errors.New("rate limit policy must have positive limit and window")
	// ErrRoutesInvalid reports missing route classification config.
	ErrRoutesInvalid = errors.New("route configuration incomplete")
	// ErrEngineNotReady reports use of an Engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")
)
