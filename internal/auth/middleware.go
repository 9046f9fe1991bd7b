package auth

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// rateLimiter tracks failed credential attempts per IP.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{attempts: make(map[string][]time.Time), now: time.Now}
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// prune drops attempts outside the window and returns what is left.
// Callers hold mu.
func (rl *rateLimiter) prune(ip string) []time.Time {
	cutoff := rl.now().Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

// limited reports whether ip has used up its failures for the window.
func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip)) >= rateLimitMaxFail
}

// recordFailure records a failed attempt.
func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.attempts[ip] = append(rl.prune(ip), rl.now())
}

// RequireAPIAuth is middleware that checks Bearer credentials on /api/
// routes. A credential is either an anonymous session token or an API key.
// Non-API routes and anonymous sign-in pass through untouched.
// Returns 401 for missing/invalid credentials, 429 for rate-limited IPs.
func RequireAPIAuth(tokens *TokenIssuer, apiKeys *APIKeyStore, next http.Handler) http.Handler {
	limiter := newRateLimiter()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") || isPublicAPIPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if limiter.limited(ip) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		cred, ok := bearer(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		p, err := authenticate(r, tokens, apiKeys, cred)
		if err != nil {
			slog.Error("checking credentials", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if p == nil {
			limiter.recordFailure(ip)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), *p)))
	})
}

// authenticate returns nil, nil for credentials that are simply wrong.
func authenticate(r *http.Request, tokens *TokenIssuer, apiKeys *APIKeyStore, cred string) (*Principal, error) {
	if LooksLikeAPIKey(cred) {
		if apiKeys == nil {
			return nil, nil
		}
		valid, err := apiKeys.Validate(r.Context(), cred)
		if err != nil || !valid {
			return nil, err
		}
		return &Principal{APIKey: true}, nil
	}

	if tokens == nil {
		return nil, nil
	}
	uid, err := tokens.Verify(cred)
	if err != nil {
		return nil, nil
	}
	return &Principal{UID: uid}, nil
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	cred, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || cred == "" {
		return "", false
	}
	return cred, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isPublicAPIPath(path string) bool {
	return path == "/api/auth/anonymous"
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding auth error", "error", err)
	}
}
