// Package propgate is the request gateway for a property-search web application:
// a stateless, HMAC-signed session-token scheme plus a layered rate-limiting and
// routing decision engine evaluated once for every inbound request.
//
// The package is designed for concurrent server workloads: Engine methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
// Evaluate is a pure function of (request, configuration, remote-store response);
// no process-local mutable state is shared between requests.
//
// # Architecture boundaries
//
// propgate is the public surface. It exposes [Engine], [Builder], [Config], and
// value types (Request, Decision, MetricsSnapshot). Infrastructure — the Redis
// sliding-window limiter and audit dispatch — lives under internal/ and is never
// exported. Token and password verification live in the leaf packages token and
// password.
//
// # Failure policy
//
// The asymmetry is deliberate and named per component:
//
//   - token.Codec.Verify and password.Verifier.Verify fail CLOSED: any malformed
//     input, signature mismatch, or missing configuration collapses to false.
//   - The rate limiter fails OPEN: a Redis outage or missing configuration is
//     never allowed to become an availability outage for the application.
//
// # What this package must NOT do
//
//   - Expose Redis clients or limiter internals in its public API.
//   - Render HTTP responses (the middleware and internal/web packages translate
//     Decisions into transport semantics).
//   - Retry rate-limit lookups; retries, if any, belong to the store client.
package propgate
