// Package httpapi exposes the session registry over a thin REST control
// plane.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Options configures the API server.
type Options struct {
	AllowedOrigins []string
	AuthToken      string
	RateLimitRPM   int
	RateLimitBurst int
	// EventsHandler, when non-nil, serves GET /ws.
	EventsHandler http.Handler
}

// Server routes control-plane requests to the session manager.
type Server struct {
	mgr     SessionManager
	opts    Options
	handler http.Handler
}

// NewServer builds the HTTP handler stack: request logging, then CORS, then
// auth, then routes, with rate limiting on every state-changing endpoint.
func NewServer(mgr SessionManager, opts Options) *Server {
	s := &Server{mgr: mgr, opts: opts}

	mux := http.NewServeMux()
	limited := newRateLimiter(opts.RateLimitRPM, opts.RateLimitBurst)

	// State-changing routes share the per-IP limiter; /start in particular
	// dials a new connection and must not be free to hammer.
	mux.Handle("GET /start/{sessionId}",
		rateLimitMiddleware(limited, http.HandlerFunc(s.handleStart)))
	mux.HandleFunc("GET /qrcode/{sessionId}", s.handleQRCode)
	mux.Handle("POST /send-message/{sessionId}",
		rateLimitMiddleware(limited, http.HandlerFunc(s.handleSendMessage)))
	mux.HandleFunc("GET /status/{sessionId}", s.handleStatus)
	mux.Handle("POST /disconnect/{sessionId}",
		rateLimitMiddleware(limited, http.HandlerFunc(s.handleDisconnect)))
	mux.Handle("POST /disconnect-all",
		rateLimitMiddleware(limited, http.HandlerFunc(s.handleDisconnectAll)))
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if opts.EventsHandler != nil {
		mux.Handle("GET /ws", opts.EventsHandler)
	}

	var h http.Handler = mux
	h = authMiddleware(opts.AuthToken, h)
	h = corsMiddleware(opts.AllowedOrigins, h)
	h = requestLogMiddleware(h)
	s.handler = h
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// statusRecorder captures the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WebSocket upgrades need the raw ResponseWriter (http.Hijacker).
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"id", uuid.NewString()[:8],
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
