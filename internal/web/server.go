package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"propgate"
	"propgate/middleware"
)

// Server hosts the application routes behind the gateway: the login
// submission endpoint, the HTML pages, and the address-API proxy.
type Server struct {
	engine   *propgate.Engine
	upstream *UpstreamClient
}

// NewServer wires the application surface to the decision engine and the
// upstream address API client. The upstream may be nil; proxy endpoints then
// answer 502.
func NewServer(engine *propgate.Engine, upstream *UpstreamClient) *Server {
	return &Server{
		engine:   engine,
		upstream: upstream,
	}
}

// Register attaches all application routes to mux. The caller wraps the mux
// with the gateway middleware; nothing here re-checks authentication.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("GET /rate-limited", s.handleRateLimitedPage)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/property", s.handleProperty)
	mux.HandleFunc("POST /api/geocode", s.handleGeocode)
	mux.HandleFunc("POST /api/validate-address", s.handleValidateAddress)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "home", pageData{Title: "Property Search"})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "login", pageData{
		Title:    "Sign in",
		Redirect: propgate.SanitizeRedirect(r.URL.Query().Get("redirect")),
	})
}

func (s *Server) handleRateLimitedPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "rate_limited", pageData{Title: "Too many requests"})
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

type loginRequest struct {
	Password string `json:"password"`
	Redirect string `json:"redirect"`
}

// decodeLoginRequest accepts both encodings the login endpoint receives: JSON
// from script clients, and application/x-www-form-urlencoded from the plain
// HTML form the login page renders.
func decodeLoginRequest(r *http.Request) (loginRequest, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return loginRequest{}, false
		}
		return body, true
	}

	if err := r.ParseForm(); err != nil {
		return loginRequest{}, false
	}
	return loginRequest{
		Password: r.PostFormValue("password"),
		Redirect: r.PostFormValue("redirect"),
	}, true
}

// handleLogin verifies the shared access password and, on success, sets the
// session cookie. The 401 body is identical whether the reference password is
// unset or the submitted one is wrong. Form submissions get a 303 to the
// sanitized target so the browser navigates; JSON clients get the target in
// the response body.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeLoginRequest(r)
	if !ok || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Password is required"})
		return
	}

	if !s.engine.VerifyPassword(r.Context(), body.Password, middleware.ClientIP(r)) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Incorrect password"})
		return
	}

	token, err := s.engine.IssueToken()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server configuration error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     propgate.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.engine.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	target := propgate.SanitizeRedirect(body.Redirect)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"redirect": target,
	})
}

// handleProperty proxies a property search to the address API. Only the
// whitelisted query parameters are forwarded.
func (s *Server) handleProperty(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Address is required"})
		return
	}

	query := url.Values{}
	query.Set("address", address)
	query.Set("include_nearby", defaultParam(r, "include_nearby", "true"))
	query.Set("radius_meters", defaultParam(r, "radius_meters", "2000"))

	resp, err := s.upstream.PropertySearch(r.Context(), query)
	s.writeUpstream(w, resp, err)
}

// handleGeocode forwards the request body untouched.
func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	resp, err := s.upstream.Geocode(r.Context(), r.Body)
	s.writeUpstream(w, resp, err)
}

type validateAddressRequest struct {
	Address string `json:"address"`
}

// handleValidateAddress validates a single address through the upstream
// service. Unlike the search proxy, validation requires the API key to be
// configured up front; without it the endpoint is a server misconfiguration,
// not a bad request.
func (s *Server) handleValidateAddress(w http.ResponseWriter, r *http.Request) {
	if !s.upstream.HasKey() {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server configuration error"})
		return
	}

	var body validateAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	address := strings.TrimSpace(body.Address)
	if address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Address is required"})
		return
	}

	resp, err := s.upstream.ValidateAddress(r.Context(), address)
	if err != nil {
		if isTimeout(err) {
			writeJSON(w, http.StatusRequestTimeout, map[string]string{"error": "Request timed out. Please try again later."})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Address service is unavailable."})
		return
	}

	// Validation failures pass through with the upstream's status so the
	// client can distinguish a bad address from a broken service.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func (s *Server) writeUpstream(w http.ResponseWriter, resp *UpstreamResponse, err error) {
	if err != nil {
		if isTimeout(err) {
			writeJSON(w, http.StatusRequestTimeout, map[string]string{"error": "The lookup timed out. Please try again."})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Address service is unavailable."})
		return
	}

	if resp.Status == http.StatusNotFound {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Address not found. Please verify and try again."})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func defaultParam(r *http.Request, name, fallback string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
