package propgate

import (
	"net/url"
	"strings"
)

// Outcome is the request classification the decision engine produces. It is
// ephemeral: never stored, recomputed per request.
type Outcome int

const (
	// OutcomeAllow passes the request through untouched.
	OutcomeAllow Outcome = iota
	// OutcomeAllowWithQuota passes the request through with remaining-quota
	// and reset-time response metadata.
	OutcomeAllowWithQuota
	// OutcomeRedirectLogin sends an unauthenticated page request to the
	// login page, preserving the return path when safe.
	OutcomeRedirectLogin
	// OutcomeRejectUnauthorized rejects an unauthenticated API request with
	// a machine-readable 401, never a redirect.
	OutcomeRejectUnauthorized
	// OutcomeRedirectRateLimited sends the request to the static
	// rate-limited notice page.
	OutcomeRedirectRateLimited
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeAllowWithQuota:
		return "allow-with-quota-headers"
	case OutcomeRedirectLogin:
		return "redirect-login"
	case OutcomeRejectUnauthorized:
		return "reject-401"
	case OutcomeRedirectRateLimited:
		return "redirect-rate-limited"
	default:
		return "unknown"
	}
}

// Request is the transport-independent view of one inbound request. The
// middleware package builds it from *http.Request; tests construct it
// directly.
type Request struct {
	// Path is the URL path, e.g. "/api/property".
	Path string
	// RawQuery is the encoded query string without the leading "?".
	RawQuery string
	// Token is the session token from the request's cookie store; empty
	// when the cookie is absent.
	Token string
	// ClientIP is the extracted client address; empty when no trusted
	// header carried one. An empty IP skips rate limiting (fail open),
	// never guesses and never rejects.
	ClientIP string
}

// Decision is the engine's verdict for one request.
type Decision struct {
	Outcome Outcome
	// RedirectTarget is set for the redirect outcomes.
	RedirectTarget string
	// QuotaRemaining and QuotaReset carry limiter metadata when HasQuota is
	// true (OutcomeAllowWithQuota only).
	QuotaRemaining int
	QuotaReset     int64
	HasQuota       bool
}

// isSafeRelative reports whether target is a same-origin relative path: it
// must start with "/" but not "//" (protocol-relative URLs resolve to a
// foreign origin and would make the login redirect an open redirect).
func isSafeRelative(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}

// SanitizeRedirect validates a post-login redirect target, falling back to
// the root path for anything that is not a safe relative path.
func SanitizeRedirect(target string) string {
	if isSafeRelative(target) {
		return target
	}
	return "/"
}

func loginRedirectTarget(loginPage, path, rawQuery string) (string, bool) {
	ret := path
	if rawQuery != "" {
		ret += "?" + rawQuery
	}
	if !isSafeRelative(ret) {
		return loginPage, false
	}
	return loginPage + "?redirect=" + url.QueryEscape(ret), true
}
