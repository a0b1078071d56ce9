// Package rate implements the Redis-backed sliding-window rate limiter client.
//
// # Window semantics
//
// Each check records one event in a per-identifier sorted set scored by
// millisecond timestamp, evicts members older than the window, and counts what
// remains: a request at time T counts against [T - window, T]. Keys expire one
// window after the last event.
//
// # Failure policy
//
// The limiter fails OPEN. A nil client (store not configured) disables every
// check with no network call; a store error or timeout reports not-limited and
// notifies the owner through the OnError hook. A rate-limiting outage must
// never become an application availability outage.
//
// # What this package must NOT do
//
//   - Decide which requests are subject to which policy (the Engine owns
//     request classification).
//   - Retry store lookups.
//   - Be imported outside the propgate module.
package rate
