package propgate

import "time"

// SecurityReport is a read-only summary of the gateway's security posture,
// intended for startup logging and operational checks. It never includes
// secret material.
type SecurityReport struct {
	SecretConfigured   bool
	PasswordConfigured bool
	TokenTTL           time.Duration
	RateLimitingActive bool
	LoginPolicy        PolicyConfig
	APIPolicy          PolicyConfig
	PublicPaths        []string
	AuditEnabled       bool
	MetricsEnabled     bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		SecretConfigured:   e.config.Token.Secret != "",
		PasswordConfigured: e.config.Password.AccessPassword != "",
		TokenTTL:           e.config.Token.TTL,
		RateLimitingActive: e.loginLimiter.Enabled() || e.apiLimiter.Enabled(),
		LoginPolicy:        e.config.RateLimit.Login,
		APIPolicy:          e.config.RateLimit.API,
		PublicPaths:        append([]string(nil), e.config.Routes.PublicPaths...),
		AuditEnabled:       e.config.Audit.Enabled,
		MetricsEnabled:     e.config.Metrics.Enabled,
	}
}
