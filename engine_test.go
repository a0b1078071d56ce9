package propgate

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testSecret   = "test-signing-secret"
	testPassword = "open-sesame"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func gatewayTestConfig() Config {
	cfg := defaultConfig()
	cfg.Token.Secret = testSecret
	cfg.Password.AccessPassword = testPassword
	cfg.RateLimit.Login = PolicyConfig{Limit: 3, Window: 15 * time.Minute}
	cfg.RateLimit.API = PolicyConfig{Limit: 5, Window: 3 * time.Hour}
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, rdb redis.UniversalClient) *Engine {
	t.Helper()

	builder := New().
		WithConfig(cfg).
		WithMetricsEnabled(true)
	if rdb != nil {
		builder = builder.WithRedis(rdb)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// makeToken hand-builds a token in wire form so tests can control the embedded
// expiry without touching the codec's clock.
func makeToken(secret string, exp int64) string {
	payload := base64.RawURLEncoding.EncodeToString(fmt.Appendf(nil, `{"exp":%d}`, exp))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return payload + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func TestBuildRequiresSecret(t *testing.T) {
	cfg := gatewayTestConfig()
	cfg.Token.Secret = ""

	if _, err := New().WithConfig(cfg).Build(); err != ErrSecretMissing {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}

func TestBuildValidatesConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"zero ttl":      func(c *Config) { c.Token.TTL = 0 },
		"zero limit":    func(c *Config) { c.RateLimit.Login.Limit = 0 },
		"zero window":   func(c *Config) { c.RateLimit.API.Window = 0 },
		"no api prefix": func(c *Config) { c.Routes.APIPrefix = "" },
		"no login page": func(c *Config) { c.Routes.LoginPage = "" },
	}
	for name, mutate := range cases {
		cfg := gatewayTestConfig()
		mutate(&cfg)
		if _, err := New().WithConfig(cfg).Build(); err == nil {
			t.Fatalf("%s: Build accepted invalid config", name)
		}
	}
}

func TestEvaluatePublicPathBypass(t *testing.T) {
	mr, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)

	for _, path := range []string{"/login", "/rate-limited", "/login/"} {
		dec := engine.Evaluate(context.Background(), Request{Path: path, ClientIP: "203.0.113.9"})
		if dec.Outcome != OutcomeAllow {
			t.Fatalf("public path %s: outcome %s, want allow", path, dec.Outcome)
		}
	}

	// The bypass happens before any limiter or auth check: no counter keys
	// may exist in the store.
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("public path touched the rate-limit store: %v", keys)
	}
}

func TestEvaluateLoginEndpointUnderQuota(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)

	dec := engine.Evaluate(context.Background(), Request{
		Path:     "/api/auth/login",
		ClientIP: "203.0.113.9",
	})
	if dec.Outcome != OutcomeAllow {
		t.Fatalf("outcome %s, want allow", dec.Outcome)
	}
}

func TestEvaluateLoginEndpointOverQuota(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := gatewayTestConfig()
	engine := newTestEngine(t, cfg, rdb)
	ctx := context.Background()

	req := Request{Path: "/api/auth/login", ClientIP: "203.0.113.9"}
	for i := 0; i < cfg.RateLimit.Login.Limit; i++ {
		if dec := engine.Evaluate(ctx, req); dec.Outcome != OutcomeAllow {
			t.Fatalf("attempt %d: outcome %s, want allow", i+1, dec.Outcome)
		}
	}

	dec := engine.Evaluate(ctx, req)
	if dec.Outcome != OutcomeRedirectRateLimited {
		t.Fatalf("outcome %s, want redirect-rate-limited", dec.Outcome)
	}
	if dec.RedirectTarget != "/rate-limited" {
		t.Fatalf("redirect target %q, want /rate-limited", dec.RedirectTarget)
	}
}

func TestEvaluateLoginEndpointNeverAuthChecked(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)

	// A garbage token must not matter on the login endpoint; auth there
	// would be circular.
	dec := engine.Evaluate(context.Background(), Request{
		Path:     "/api/auth/login",
		Token:    "not.a-token",
		ClientIP: "203.0.113.9",
	})
	if dec.Outcome != OutcomeAllow {
		t.Fatalf("outcome %s, want allow", dec.Outcome)
	}
}

func TestEvaluateLoginEndpointNoIPSkipsLimiter(t *testing.T) {
	mr, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)

	dec := engine.Evaluate(context.Background(), Request{Path: "/api/auth/login"})
	if dec.Outcome != OutcomeAllow {
		t.Fatalf("outcome %s, want allow", dec.Outcome)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("limiter touched the store without a client IP: %v", keys)
	}
}

func TestEvaluateUnauthenticatedPageRedirect(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)

	dec := engine.Evaluate(context.Background(), Request{Path: "/dashboard"})
	if dec.Outcome != OutcomeRedirectLogin {
		t.Fatalf("outcome %s, want redirect-login", dec.Outcome)
	}
	if dec.RedirectTarget != "/login?redirect=%2Fdashboard" {
		t.Fatalf("redirect target %q", dec.RedirectTarget)
	}
}

func TestEvaluateRedirectPreservesQuery(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)

	dec := engine.Evaluate(context.Background(), Request{
		Path:     "/property",
		RawQuery: "address=123+Main+St",
	})
	if dec.Outcome != OutcomeRedirectLogin {
		t.Fatalf("outcome %s, want redirect-login", dec.Outcome)
	}
	want := "/login?redirect=%2Fproperty%3Faddress%3D123%2BMain%2BSt"
	if dec.RedirectTarget != want {
		t.Fatalf("redirect target %q, want %q", dec.RedirectTarget, want)
	}
}

func TestEvaluateExpiredTokenPage(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)

	dec := engine.Evaluate(context.Background(), Request{
		Path:  "/dashboard",
		Token: makeToken(testSecret, time.Now().Add(-time.Hour).Unix()),
	})
	if dec.Outcome != OutcomeRedirectLogin {
		t.Fatalf("outcome %s, want redirect-login", dec.Outcome)
	}
	if dec.RedirectTarget != "/login?redirect=%2Fdashboard" {
		t.Fatalf("redirect target %q", dec.RedirectTarget)
	}
}

func TestEvaluateUnauthenticatedAPI(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)
	ctx := context.Background()

	for name, token := range map[string]string{
		"missing": "",
		"garbage": "nonsense",
		"expired": makeToken(testSecret, time.Now().Add(-time.Hour).Unix()),
		"forged":  makeToken("wrong-secret", time.Now().Add(time.Hour).Unix()),
	} {
		dec := engine.Evaluate(ctx, Request{
			Path:     "/api/property",
			RawQuery: "address=x",
			Token:    token,
			ClientIP: "203.0.113.9",
		})
		if dec.Outcome != OutcomeRejectUnauthorized {
			t.Fatalf("%s token: outcome %s, want reject-401", name, dec.Outcome)
		}
	}
}

func TestEvaluateAuthenticatedAPIQuotaHeaders(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := gatewayTestConfig()
	engine := newTestEngine(t, cfg, rdb)

	tok, err := engine.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	dec := engine.Evaluate(context.Background(), Request{
		Path:     "/api/property",
		RawQuery: "address=x",
		Token:    tok,
		ClientIP: "203.0.113.9",
	})
	if dec.Outcome != OutcomeAllowWithQuota {
		t.Fatalf("outcome %s, want allow-with-quota-headers", dec.Outcome)
	}
	if !dec.HasQuota {
		t.Fatal("expected quota metadata")
	}
	if dec.QuotaRemaining != cfg.RateLimit.API.Limit-1 {
		t.Fatalf("remaining %d, want %d", dec.QuotaRemaining, cfg.RateLimit.API.Limit-1)
	}
	if dec.QuotaReset <= time.Now().Unix() {
		t.Fatalf("reset %d not in the future", dec.QuotaReset)
	}
}

func TestEvaluateAuthenticatedAPIOverQuota(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := gatewayTestConfig()
	engine := newTestEngine(t, cfg, rdb)
	ctx := context.Background()

	tok, err := engine.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	req := Request{Path: "/api/property", Token: tok, ClientIP: "203.0.113.9"}
	for i := 0; i < cfg.RateLimit.API.Limit; i++ {
		if dec := engine.Evaluate(ctx, req); dec.Outcome != OutcomeAllowWithQuota {
			t.Fatalf("request %d: outcome %s", i+1, dec.Outcome)
		}
	}

	dec := engine.Evaluate(ctx, req)
	if dec.Outcome != OutcomeRedirectRateLimited {
		t.Fatalf("outcome %s, want redirect-rate-limited", dec.Outcome)
	}
}

func TestEvaluateAuthenticatedAPINoIP(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)

	tok, err := engine.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	// No client IP: limiting is skipped, not guessed; plain allow with no
	// quota metadata.
	dec := engine.Evaluate(context.Background(), Request{Path: "/api/property", Token: tok})
	if dec.Outcome != OutcomeAllow {
		t.Fatalf("outcome %s, want allow", dec.Outcome)
	}
	if dec.HasQuota {
		t.Fatal("unexpected quota metadata without an IP")
	}
}

func TestEvaluateAuthenticatedPage(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)

	tok, err := engine.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	dec := engine.Evaluate(context.Background(), Request{
		Path:     "/property",
		Token:    tok,
		ClientIP: "203.0.113.9",
	})
	if dec.Outcome != OutcomeAllow {
		t.Fatalf("outcome %s, want allow", dec.Outcome)
	}
}

func TestEvaluateFailOpenOnStoreOutage(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := gatewayTestConfig()

	sink := NewChannelSink(16)
	builder := New().WithConfig(cfg).WithRedis(rdb).WithMetricsEnabled(true).WithAuditSink(sink)
	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	tok, err := engine.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	mr.Close()

	dec := engine.Evaluate(context.Background(), Request{
		Path:     "/api/property",
		Token:    tok,
		ClientIP: "203.0.113.9",
	})
	if dec.Outcome != OutcomeAllowWithQuota {
		t.Fatalf("outcome %s, want allow-with-quota-headers (fail open)", dec.Outcome)
	}
	if dec.HasQuota {
		t.Fatal("store outage produced quota metadata")
	}

	select {
	case event := <-sink.Events():
		if event.EventType != AuditLimiterFailOpen {
			t.Fatalf("event type %q, want %q", event.EventType, AuditLimiterFailOpen)
		}
		if event.Error == "" {
			t.Fatal("fail-open event carries no error detail")
		}
	case <-time.After(time.Second):
		t.Fatal("no fail-open audit event emitted")
	}

	if got := engine.MetricsSnapshot().Counters[MetricLimiterFailOpen]; got != 1 {
		t.Fatalf("fail-open counter %d, want 1", got)
	}
}

func TestEvaluateWithoutRedisDisablesLimiting(t *testing.T) {
	engine := newTestEngine(t, gatewayTestConfig(), nil)
	ctx := context.Background()

	// Far beyond both budgets: every request still flows.
	for i := 0; i < 50; i++ {
		if dec := engine.Evaluate(ctx, Request{Path: "/api/auth/login", ClientIP: "203.0.113.9"}); dec.Outcome != OutcomeAllow {
			t.Fatalf("login attempt %d: outcome %s", i+1, dec.Outcome)
		}
	}

	tok, err := engine.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	dec := engine.Evaluate(ctx, Request{Path: "/api/property", Token: tok, ClientIP: "203.0.113.9"})
	if dec.Outcome != OutcomeAllowWithQuota || dec.HasQuota {
		t.Fatalf("disabled limiter: outcome %s, HasQuota %v", dec.Outcome, dec.HasQuota)
	}
}

func TestEvaluateAuditsRateLimitTrips(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := gatewayTestConfig()
	cfg.RateLimit.Login = PolicyConfig{Limit: 1, Window: 15 * time.Minute}

	sink := NewChannelSink(16)
	engine, err := New().WithConfig(cfg).WithRedis(rdb).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()
	req := Request{Path: "/api/auth/login", ClientIP: "203.0.113.9"}
	engine.Evaluate(ctx, req)
	engine.Evaluate(ctx, req)

	select {
	case event := <-sink.Events():
		if event.EventType != AuditLoginRateLimited {
			t.Fatalf("event type %q, want %q", event.EventType, AuditLoginRateLimited)
		}
		if event.IP != "203.0.113.9" {
			t.Fatalf("event IP %q", event.IP)
		}
	case <-time.After(time.Second):
		t.Fatal("no audit event emitted for the rate-limit trip")
	}
}

func TestEvaluateMetricsCount(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, gatewayTestConfig(), rdb)
	ctx := context.Background()

	engine.Evaluate(ctx, Request{Path: "/login"})
	engine.Evaluate(ctx, Request{Path: "/dashboard"})
	engine.Evaluate(ctx, Request{Path: "/api/property", ClientIP: "203.0.113.9"})

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricRequestAllowed] != 1 {
		t.Fatalf("allowed counter %d, want 1", snap.Counters[MetricRequestAllowed])
	}
	if snap.Counters[MetricAuthRedirect] != 1 {
		t.Fatalf("auth redirect counter %d, want 1", snap.Counters[MetricAuthRedirect])
	}
	if snap.Counters[MetricAPIUnauthorized] != 1 {
		t.Fatalf("unauthorized counter %d, want 1", snap.Counters[MetricAPIUnauthorized])
	}
}

func TestUnbuiltEngineRejects(t *testing.T) {
	var engine *Engine
	if dec := engine.Evaluate(context.Background(), Request{Path: "/"}); dec.Outcome != OutcomeRejectUnauthorized {
		t.Fatalf("nil engine outcome %s, want reject-401", dec.Outcome)
	}

	zero := &Engine{}
	if dec := zero.Evaluate(context.Background(), Request{Path: "/"}); dec.Outcome != OutcomeRejectUnauthorized {
		t.Fatalf("zero engine outcome %s, want reject-401", dec.Outcome)
	}
}

func BenchmarkEvaluateAuthenticated(b *testing.B) {
	engine, err := New().WithConfig(gatewayTestConfig()).Build()
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	token := makeToken(testSecret, time.Now().Add(time.Hour).Unix())
	req := Request{Path: "/dashboard", Token: token}
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Evaluate(ctx, req)
	}
}

func BenchmarkEvaluatePublicPath(b *testing.B) {
	engine, err := New().WithConfig(gatewayTestConfig()).Build()
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	req := Request{Path: "/login"}
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Evaluate(ctx, req)
	}
}
