// Package token encodes and decodes the signed, expiring session token.
//
// # Wire form
//
//	<base64url(payload-json)>.<base64url(hmac-sha256-signature)>
//
// Two dot-separated segments, base64url without padding, no header segment.
// The payload currently carries only {"exp": <unix-seconds>}; the schema is
// forward-extensible.
//
// # What this package must NOT do
//
//   - Surface parse or signature errors to callers: Verify fails closed to a
//     boolean for every malformed input.
//   - Perform I/O. Issuance and verification are synchronous digest work over
//     fixed-size inputs.
package token
