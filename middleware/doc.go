// Package middleware adapts the propgate decision engine to net/http.
//
// [Guard] wraps a handler chain: it builds a transport-independent request
// view (path, query, session cookie, client IP), asks the engine for a
// decision, and translates the outcome back into HTTP: pass-through, quota
// headers, a redirect, or a JSON 401.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT make
// gateway decisions itself; all classification is delegated to
// Engine.Evaluate.
//
// # What this package must NOT do
//
//   - Verify tokens or passwords directly (delegates to the Engine).
//   - Access Redis (the Engine owns limiter I/O).
//   - Trust any client-IP source beyond the configured proxy headers.
package middleware
