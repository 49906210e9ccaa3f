package api

import (
	"crypto/subtle"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/Zuo-Peng/convman/internal/dispatch"
)

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorizeRequest(r) {
			writeJSON(w, http.StatusUnauthorized, dispatch.Response{"success": false, "error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorizeRequest(r *http.Request) bool {
	if s.cfg.Token == "" {
		return true
	}

	queryToken := strings.TrimSpace(r.URL.Query().Get("token"))
	if queryToken != "" && secureEqual(queryToken, s.cfg.Token) {
		return true
	}

	headerToken := bearerToken(r.Header.Get("Authorization"))
	return headerToken != "" && secureEqual(headerToken, s.cfg.Token)
}

func bearerToken(authHeader string) string {
	const bearerPrefix = "Bearer "
	authHeader = strings.TrimSpace(authHeader)
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// allowOrigin accepts requests without an Origin header (CLI clients) and
// browser requests from a page served by this host.
func allowOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil || originURL.Host == "" {
		return false
	}
	return strings.EqualFold(originURL.Host, r.Host)
}

// isJSON reports whether the request declares a JSON body. Pages on other
// origins cannot send that content type without a preflight this server
// never answers.
func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// guardBrowser refuses POSTs a foreign web page could forge: a cross-origin
// Origin, or a body not declared as JSON.
func guardBrowser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if !allowOrigin(r) {
				writeJSON(w, http.StatusForbidden, dispatch.Response{"success": false, "error": "cross-origin request refused"})
				return
			}
			if !isJSON(r) {
				writeJSON(w, http.StatusUnsupportedMediaType, dispatch.Response{"success": false, "error": "content type must be application/json"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
