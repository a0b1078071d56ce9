package propgate

import (
	"github.com/redis/go-redis/v9"

	"propgate/internal/rate"
	"propgate/password"
	"propgate/token"
)

// Builder assembles an Engine. Construction is allocation-only; no I/O happens
// until the Engine serves requests.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	auditSink AuditSink
	built     bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the rate-limit counter store. Leaving it nil disables
// rate limiting entirely: every check short-circuits to not-limited with no
// network call.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink supplies the audit event consumer and enables audit dispatch.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles the in-process decision counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and constructs the Engine. The signing
// key material is derived here, once per process, and reused for every
// request.
func (b *Builder) Build() (*Engine, error) {
	if b == nil || b.built {
		return nil, ErrEngineNotReady
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	codec, err := token.New(b.config.Token.Secret, b.config.Token.TTL)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:   b.config,
		redis:    b.redis,
		codec:    codec,
		verifier: password.NewVerifier(b.config.Token.Secret, b.config.Password.AccessPassword),
		metrics:  newMetrics(b.config.Metrics),
		audit:    newAuditDispatcher(b.config.Audit, b.auditSink),
	}

	rl := b.config.RateLimit
	e.loginLimiter = rate.New(b.redis, rate.Policy{
		Name:   "login",
		Limit:  rl.Login.Limit,
		Window: rl.Login.Window,
	}, rl.RedisPrefix, rl.CheckTimeout)
	e.apiLimiter = rate.New(b.redis, rate.Policy{
		Name:   "api",
		Limit:  rl.API.Limit,
		Window: rl.API.Window,
	}, rl.RedisPrefix, rl.CheckTimeout)
	e.loginLimiter.OnError = e.limiterFailOpen
	e.apiLimiter.OnError = e.limiterFailOpen

	b.built = true
	return e, nil
}

func validateConfig(cfg Config) error {
	if cfg.Token.Secret == "" {
		return ErrSecretMissing
	}
	if cfg.Token.TTL <= 0 {
		return ErrTokenTTLInvalid
	}
	for _, p := range []PolicyConfig{cfg.RateLimit.Login, cfg.RateLimit.API} {
		if p.Limit <= 0 || p.Window <= 0 {
			return ErrPolicyInvalid
		}
	}
	r := cfg.Routes
	if r.LoginEndpoint == "" || r.APIPrefix == "" || r.LoginPage == "" || r.RateLimitedPage == "" {
		return ErrRoutesInvalid
	}
	return nil
}
