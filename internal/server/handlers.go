package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	constants "smanager/config"
)

func (g *Gateway) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET "+constants.ROUTE_METRICS,
		g.requireToken("metrics", g.instruments.instrument("metrics", http.HandlerFunc(g.handleMetrics))))
	mux.Handle("GET "+constants.ROUTE_HEALTH,
		g.requireToken("health", g.instruments.instrument("health", http.HandlerFunc(g.handleHealth))))
	mux.HandleFunc("GET "+constants.ROUTE_PUSH, g.handlePush)

	if g.opts.ExposeSelfMetrics && g.instruments != nil {
		mux.Handle("GET "+constants.ROUTE_SELFMETRICS, g.requireToken("selfmetrics", g.instruments.Handler()))
	}
	if g.opts.Files != nil {
		g.mountFiles(mux)
	}

	// unknown API paths must not fall through to static content
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusNotFound, "not found")
	})
	mux.Handle("/", staticHandler(g.opts.StaticDir))

	return mux
}

func (g *Gateway) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap := g.store.Current()
	if snap == nil {
		w.Header().Set("Retry-After", "1")
		writeText(w, http.StatusServiceUnavailable, "metrics not ready")
		return
	}

	w.Header().Set("Content-Type", constants.CONTENT_TYPE_JSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(snap.Encode())
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

// handlePush upgrades an authorized request and keeps the subscriber
// registered until either side closes
func (g *Gateway) handlePush(w http.ResponseWriter, r *http.Request) {
	if !queryAuthorized(r, g.opts.Token) {
		g.instruments.authRejected("push")
		g.log.Warning("Rejected push connection from %s: unauthorized", r.RemoteAddr)
		writeText(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warning("Push upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	sub := newSubscriber(conn)
	if !g.hub.add(sub) {
		sub.close(websocket.CloseGoingAway, "server shutting down")
		return
	}
	g.log.Info("Subscriber %s connected from %s (%d active)", sub.id, r.RemoteAddr, g.hub.count())

	// clients only send control frames; reading drives ping/close handling
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	if g.hub.remove(sub, websocket.CloseNormalClosure, "") {
		g.log.Info("Subscriber %s disconnected (%d active)", sub.id, g.hub.count())
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", constants.CONTENT_TYPE_TEXT)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	w.Write([]byte(body))
}
