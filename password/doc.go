// Package password verifies the single shared access credential.
//
// There is exactly one secret-derived identity ("has the access password");
// no per-user state exists. Verification compares keyed digests of the
// submitted and reference values rather than the raw strings, so neither the
// password's length nor its content leaks through timing.
//
// The verifier fails CLOSED: when no reference password is configured, every
// submission is rejected. This is the opposite of the rate limiter's fail-open
// policy, and the asymmetry is deliberate.
package password
