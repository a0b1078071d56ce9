// Command propgate runs the property-search gateway: the decision engine in
// front of the application routes, plus unguarded health and metrics
// endpoints.
//
// Configuration is read from the environment (a .env file is loaded when
// present):
//
//	COOKIE_SECRET    HMAC signing secret for session tokens (required)
//	ACCESS_PASSWORD  shared access password; unset rejects every login
//	REDIS_ADDR       rate-limit store address; unset disables rate limiting
//	REDIS_PASSWORD   optional Redis auth
//	ADDRESS_API_URL  upstream address API base URL
//	ADDRESS_API_KEY  upstream API key
//	PORT             listen port, default 8080
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"propgate"
	"propgate/internal/web"
	"propgate/metrics/export/prometheus"
	"propgate/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfg := propgate.DefaultConfig()
	cfg.Token.Secret = os.Getenv("COOKIE_SECRET")
	cfg.Password.AccessPassword = os.Getenv("ACCESS_PASSWORD")

	var client redis.UniversalClient
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
	} else {
		log.Println("REDIS_ADDR not set; rate limiting disabled")
	}

	engine, err := propgate.New().
		WithConfig(cfg).
		WithRedis(client).
		WithAuditSink(propgate.NewJSONWriterSink(os.Stdout)).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		log.Fatal("engine build: ", err)
	}
	defer engine.Close()

	report := engine.SecurityReport()
	log.Printf("gateway posture: token_ttl=%s rate_limiting=%v audit=%v metrics=%v",
		report.TokenTTL, report.RateLimitingActive, report.AuditEnabled, report.MetricsEnabled)

	upstream := web.NewUpstreamClient(os.Getenv("ADDRESS_API_URL"), os.Getenv("ADDRESS_API_KEY"))

	app := http.NewServeMux()
	web.NewServer(engine, upstream).Register(app)

	root := http.NewServeMux()
	root.Handle("/", middleware.Guard(engine)(app))
	root.Handle("GET /metrics", prometheus.NewPrometheusExporter(engine).Handler())
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		health := engine.Health(r.Context())
		status := http.StatusOK
		if health.RedisConfigured && !health.RedisAvailable {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"redis_configured": health.RedisConfigured,
			"redis_available":  health.RedisAvailable,
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve: ", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
