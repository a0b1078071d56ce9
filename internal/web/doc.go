// Package web is the application surface the gateway guards: the login
// submission endpoint, the server-rendered pages, and the thin proxy to the
// upstream address API.
//
// # Architecture boundaries
//
// Handlers here never make gateway decisions. Authentication and rate
// limiting happen in the middleware layer before a request reaches this
// package; the login handler only delegates password verification and token
// issuance to the engine.
//
// # What this package must NOT do
//
//   - Verify tokens or compare passwords itself.
//   - Access Redis.
//   - Cache or transform upstream responses beyond status mapping.
package web
