package mw

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/daylog/internal/logger"
)

func passthrough(next http.Handler) http.Handler { return next }

func forbidden(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// AllowOnlyCIDRS restricts admin routes to the listed IPs and CIDRs.
// An empty list disables the check.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := newIPMatcher(allowed)
	if m.IsEmpty() {
		return passthrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("admin route rejected",
					logger.String("remote_ip", ip),
					logger.String("path", r.URL.Path))
				forbidden(w, "address not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnforceHost rejects requests whose Host header matches none of
// allowedHosts. Patterns may be exact ("diary.lan") or a wildcard
// ("*.example.com"). An empty list disables the check.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return passthrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := hostNoPort(r.Host)
			for _, pattern := range allowedHosts {
				if MatchHost(host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Debug("host rejected", logger.String("host", r.Host))
			forbidden(w, "host not allowed")
		})
	}
}

// MatchHost reports whether host matches pattern, exactly or through a
// "*.example.com" wildcard that requires a subdomain.
func MatchHost(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if host == pattern {
		return true
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix) && len(host) > len(suffix)
	}
	return false
}
