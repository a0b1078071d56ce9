package internaldefs

import (
	"propgate"
)

// CounterDef maps one gateway counter to its exported metric name.
type CounterDef struct {
	ID   propgate.MetricID
	Name string
	Help string
}

// CounterDefs is the full catalog of exported gateway counters. Order is the
// render order in the Prometheus text output.
var CounterDefs = []CounterDef{
	{ID: propgate.MetricRequestAllowed, Name: "propgate_request_allowed_total", Help: "Requests passed through without quota metadata."},
	{ID: propgate.MetricRequestAllowedQuota, Name: "propgate_request_allowed_quota_total", Help: "Authenticated API requests passed through with quota headers."},
	{ID: propgate.MetricAuthRedirect, Name: "propgate_auth_redirect_total", Help: "Unauthenticated page requests redirected to the login page."},
	{ID: propgate.MetricAPIUnauthorized, Name: "propgate_api_unauthorized_total", Help: "Unauthenticated API requests rejected with 401."},
	{ID: propgate.MetricRateLimited, Name: "propgate_rate_limited_total", Help: "Requests redirected to the rate-limited notice page."},
	{ID: propgate.MetricLoginSuccess, Name: "propgate_login_success_total", Help: "Successful access-password verifications."},
	{ID: propgate.MetricLoginFailure, Name: "propgate_login_failure_total", Help: "Rejected access-password verifications."},
	{ID: propgate.MetricTokenIssued, Name: "propgate_token_issued_total", Help: "Session tokens issued."},
	{ID: propgate.MetricRedirectRejected, Name: "propgate_redirect_rejected_total", Help: "Open-redirect targets stripped to the root path."},
	{ID: propgate.MetricLimiterFailOpen, Name: "propgate_limiter_fail_open_total", Help: "Rate-limit checks that failed open on a store error."},
}
