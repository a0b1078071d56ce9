package propgate

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"propgate/internal/rate"
	"propgate/password"
	"propgate/token"
)

// Engine is the gateway decision engine. It composes the token codec, the
// password verifier, and the two rate-limiter clients, and classifies every
// inbound request in strict priority order. An Engine is immutable after
// [Builder.Build] and safe for concurrent use.
type Engine struct {
	config       Config
	codec        *token.Codec
	verifier     *password.Verifier
	loginLimiter *rate.Limiter
	apiLimiter   *rate.Limiter
	redis        redis.UniversalClient
	audit        *auditDispatcher
	metrics      *Metrics
}

// Evaluate classifies one request. Steps run in strict priority order; each
// either returns a final outcome or falls through to the next:
//
//  1. public-path bypass (no auth or rate-limit check at all)
//  2. login-endpoint limiter (never auth-checked, never under the API policy)
//  3. authentication via the token codec
//  4. API rate limiting for authenticated API paths
//  5. default allow
func (e *Engine) Evaluate(ctx context.Context, req Request) Decision {
	if e == nil || e.codec == nil {
		// An unbuilt engine must never allow traffic through.
		return Decision{Outcome: OutcomeRejectUnauthorized}
	}

	if e.isPublicPath(req.Path) {
		e.metricInc(MetricRequestAllowed)
		return Decision{Outcome: OutcomeAllow}
	}

	if req.Path == e.config.Routes.LoginEndpoint {
		return e.evaluateLoginEndpoint(ctx, req)
	}

	if !e.codec.Verify(req.Token) {
		return e.evaluateUnauthenticated(ctx, req)
	}

	if e.isAPIPath(req.Path) && req.ClientIP != "" {
		return e.evaluateAPIQuota(ctx, req)
	}

	e.metricInc(MetricRequestAllowed)
	return Decision{Outcome: OutcomeAllow}
}

func (e *Engine) evaluateLoginEndpoint(ctx context.Context, req Request) Decision {
	// No client IP means the limiter is skipped, not guessed at.
	if req.ClientIP != "" {
		res := e.loginLimiter.Check(ctx, req.ClientIP)
		if res.Limited {
			e.metricInc(MetricRateLimited)
			e.emitAudit(ctx, AuditEvent{
				EventType: AuditLoginRateLimited,
				Path:      req.Path,
				IP:        req.ClientIP,
			})
			return Decision{
				Outcome:        OutcomeRedirectRateLimited,
				RedirectTarget: e.config.Routes.RateLimitedPage,
			}
		}
	}
	e.metricInc(MetricRequestAllowed)
	return Decision{Outcome: OutcomeAllow}
}

func (e *Engine) evaluateUnauthenticated(ctx context.Context, req Request) Decision {
	if e.isAPIPath(req.Path) {
		e.metricInc(MetricAPIUnauthorized)
		e.emitAudit(ctx, AuditEvent{
			EventType: AuditAPIUnauthorized,
			Path:      req.Path,
			IP:        req.ClientIP,
		})
		return Decision{Outcome: OutcomeRejectUnauthorized}
	}

	target, carried := loginRedirectTarget(e.config.Routes.LoginPage, req.Path, req.RawQuery)
	if !carried {
		e.metricInc(MetricRedirectRejected)
		e.emitAudit(ctx, AuditEvent{
			EventType: AuditRedirectRejected,
			Path:      req.Path,
			IP:        req.ClientIP,
		})
	}
	e.metricInc(MetricAuthRedirect)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditAuthRedirect,
		Path:      req.Path,
		IP:        req.ClientIP,
	})
	return Decision{Outcome: OutcomeRedirectLogin, RedirectTarget: target}
}

func (e *Engine) evaluateAPIQuota(ctx context.Context, req Request) Decision {
	res := e.apiLimiter.Check(ctx, req.ClientIP)
	if res.Limited {
		e.metricInc(MetricRateLimited)
		e.emitAudit(ctx, AuditEvent{
			EventType: AuditRateLimited,
			Path:      req.Path,
			IP:        req.ClientIP,
			Metadata:  map[string]string{"policy": e.apiLimiter.PolicyName()},
		})
		return Decision{
			Outcome:        OutcomeRedirectRateLimited,
			RedirectTarget: e.config.Routes.RateLimitedPage,
		}
	}

	e.metricInc(MetricRequestAllowedQuota)
	d := Decision{Outcome: OutcomeAllowWithQuota}
	if res.HasMeta {
		d.QuotaRemaining = res.Remaining
		d.QuotaReset = res.Reset.Unix()
		d.HasQuota = true
	}
	return d
}

// IssueToken creates a fresh session token. Exposed for the login handler.
func (e *Engine) IssueToken() (string, error) {
	if e == nil || e.codec == nil {
		return "", ErrEngineNotReady
	}
	token, err := e.codec.Issue()
	if err != nil {
		return "", err
	}
	e.metricInc(MetricTokenIssued)
	return token, nil
}

// VerifyPassword checks the submitted access password. Exposed for the login
// handler; fails closed when no password is configured, and the caller must
// not surface which of the two cases rejected the attempt.
func (e *Engine) VerifyPassword(ctx context.Context, submitted, clientIP string) bool {
	if e == nil {
		return false
	}
	ok := e.verifier.Verify(submitted)
	if ok {
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, AuditEvent{EventType: AuditLoginSuccess, IP: clientIP, Success: true})
	} else {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditEvent{EventType: AuditLoginFailure, IP: clientIP})
	}
	return ok
}

// TokenTTL returns the configured session token lifetime.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.Token.TTL
}

// Routes returns the route classification configuration.
func (e *Engine) Routes() RouteConfig {
	if e == nil {
		return RouteConfig{}
	}
	return e.config.Routes
}

// MetricsSnapshot returns a copy of the gateway counters. Safe on a nil or
// metrics-disabled engine.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports events dropped by the dispatcher under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close stops the audit dispatcher, flushing buffered events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

func (e *Engine) isPublicPath(path string) bool {
	for _, p := range e.config.Routes.PublicPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (e *Engine) isAPIPath(path string) bool {
	return strings.HasPrefix(path, e.config.Routes.APIPrefix)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	e.audit.Emit(ctx, event)
}

func (e *Engine) limiterFailOpen(policy string, err error) {
	e.metricInc(MetricLimiterFailOpen)
	e.emitAudit(context.Background(), AuditEvent{
		Timestamp: time.Now(),
		EventType: AuditLimiterFailOpen,
		Error:     err.Error(),
		Metadata:  map[string]string{"policy": policy},
	})
}
