package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"propgate"
)

// Guard returns middleware that classifies every request through the engine
// before it reaches next. Redirect outcomes use 307 so the browser replays
// the original method after login.
func Guard(engine *propgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeUnauthorized(w)
				return
			}

			decision := engine.Evaluate(r.Context(), propgate.Request{
				Path:     r.URL.Path,
				RawQuery: r.URL.RawQuery,
				Token:    sessionToken(r),
				ClientIP: ClientIP(r),
			})

			switch decision.Outcome {
			case propgate.OutcomeAllow:
				next.ServeHTTP(w, r)
			case propgate.OutcomeAllowWithQuota:
				if decision.HasQuota {
					w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.QuotaRemaining))
					w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.QuotaReset, 10))
				}
				next.ServeHTTP(w, r)
			case propgate.OutcomeRedirectLogin, propgate.OutcomeRedirectRateLimited:
				http.Redirect(w, r, decision.RedirectTarget, http.StatusTemporaryRedirect)
			default:
				writeUnauthorized(w)
			}
		})
	}
}

// ClientIP extracts the client address from trusted proxy headers:
// X-Real-Ip first, then the first X-Forwarded-For entry. It returns ""
// when neither is present; the engine skips rate limiting in that case
// rather than guessing from the socket address.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return ""
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(propgate.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}
