package propgate

import "time"

// Config holds the immutable gateway configuration. It is constructed once at
// process start, validated by [Builder.Build], and never re-read per request.
type Config struct {
	Token     TokenConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Routes    RouteConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// TokenConfig controls session-token issuance and verification.
type TokenConfig struct {
	// Secret is the HMAC signing secret. Required: Build fails with
	// ErrSecretMissing when empty.
	Secret string
	// TTL is the token lifetime. Tokens are discarded, never renewed, once
	// the embedded expiry passes.
	TTL time.Duration
}

// PasswordConfig holds the single shared access credential. When AccessPassword
// is empty the verifier fails closed and every login attempt is rejected.
type PasswordConfig struct {
	AccessPassword string
}

// PolicyConfig is one named sliding-window rate-limit policy.
type PolicyConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig tunes the Redis-backed sliding-window limiters. The limiter
// is disabled entirely (every check short-circuits to not-limited) when no
// Redis client is supplied to the Builder.
type RateLimitConfig struct {
	// RedisPrefix namespaces limiter keys, e.g. "ratelimit:".
	RedisPrefix string
	// Login throttles the login submission endpoint per client IP.
	Login PolicyConfig
	// API throttles authenticated API paths per client IP.
	API PolicyConfig
	// CheckTimeout bounds each store lookup; expiry fails open.
	CheckTimeout time.Duration
}

// RouteConfig describes the path classification the decision engine applies.
type RouteConfig struct {
	// PublicPaths are prefix-matched routes reachable with no auth or
	// rate-limit check at all.
	PublicPaths []string
	// LoginEndpoint is the exact-match login submission path. It is never
	// auth-checked and never subject to the API policy.
	LoginEndpoint string
	// APIPrefix marks machine-client paths: auth failures get a 401 body
	// instead of an HTML redirect.
	APIPrefix string
	// LoginPage is the redirect target for unauthenticated page requests.
	LoginPage string
	// RateLimitedPage is the static notice page for rate-limit trips.
	RateLimitedPage string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process decision counters.
type MetricsConfig struct {
	Enabled bool
}

// CookieName is the session cookie carrying the token wire form.
const CookieName = "access_token"

// DefaultConfig returns the production defaults: 7-day tokens, the login policy
// at 10 events per 15-minute window, and the API policy at 100 events per
// 3-hour window.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL: 7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RedisPrefix:  "ratelimit:",
			Login:        PolicyConfig{Limit: 10, Window: 15 * time.Minute},
			API:          PolicyConfig{Limit: 100, Window: 3 * time.Hour},
			CheckTimeout: 2 * time.Second,
		},
		Routes: RouteConfig{
			PublicPaths:     []string{"/login", "/rate-limited"},
			LoginEndpoint:   "/api/auth/login",
			APIPrefix:       "/api/",
			LoginPage:       "/login",
			RateLimitedPage: "/rate-limited",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Routes.PublicPaths = append([]string(nil), cfg.Routes.PublicPaths...)
	return out
}
