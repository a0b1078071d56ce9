//go:build integration
// +build integration

package test

import (
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"propgate"
	"propgate/internal/web"
	"propgate/middleware"
)

// newGateway assembles the full stack the way cmd/propgate does: engine,
// application routes, and the guard middleware in front.
func newGateway(t *testing.T, secret, accessPassword, upstreamURL string) (http.Handler, *propgate.Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := propgate.DefaultConfig()
	cfg.Token.Secret = secret
	cfg.Password.AccessPassword = accessPassword

	engine, err := propgate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	app := http.NewServeMux()
	web.NewServer(engine, web.NewUpstreamClient(upstreamURL, "integration-key")).Register(app)

	return middleware.Guard(engine)(app), engine, mr
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name == propgate.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}
