package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authorized accepts a bearer credential or a ?token= query parameter.
// An empty token disables the check.
func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		if tokenEqual(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")), token) {
			return true
		}
	}

	return queryAuthorized(r, token)
}

// queryAuthorized is the narrower check for WebSocket handshakes, which
// cannot carry custom headers from a browser.
func queryAuthorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	return tokenEqual(r.URL.Query().Get("token"), token)
}

func tokenEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// requireToken rejects unauthorized requests with 401 before next runs
func (g *Gateway) requireToken(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, g.opts.Token) {
			g.instruments.authRejected(endpoint)
			g.log.Warning("Rejected %s request from %s: unauthorized", endpoint, r.RemoteAddr)
			writeText(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
