// Package api is the JSON HTTP surface of the creative workflow
// service: session phases under /api/v1/workflow, saved creations under
// /api/v1/gallery, plus health probes.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kidcreatives/kidcreatives/internal/gallery"
	"github.com/kidcreatives/kidcreatives/internal/storage"
	"github.com/kidcreatives/kidcreatives/internal/workflow"
)

// ServerConfig contains everything the API server needs.
type ServerConfig struct {
	Logger       *slog.Logger
	Workflow     *workflow.Service // Required
	GalleryStore *gallery.Store    // Required
	Blobs        *storage.Blobs    // Required: serves stored artifacts
	Pool         *pgxpool.Pool     // Optional: nil degrades /ready
	CookieSecret []byte            // Required: 32+ bytes, signs the uid cookie
	CORSOrigins  []string          // Allowed origins for CORS
	IsDev        bool              // Enables HTTP cookies (no Secure flag)
	TrustProxy   bool              // Trust X-Real-IP/X-Forwarded-For
	RateBurst    int               // Rate limiter burst per IP (0 = defaultRateBurst)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer wires routes and the middleware stack.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Workflow == nil {
		return nil, errors.New("workflow service is required")
	}
	if cfg.GalleryStore == nil || cfg.Blobs == nil {
		return nil, errors.New("gallery store and blob store are required")
	}
	if len(cfg.CookieSecret) < 32 {
		return nil, errors.New("cookie secret must be at least 32 bytes")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	om := &ownerManager{hmacSecret: cfg.CookieSecret, isDev: cfg.IsDev}
	wh := &workflowHandler{service: cfg.Workflow, logger: logger}
	gh := &galleryHandler{
		service: cfg.Workflow,
		store:   cfg.GalleryStore,
		blobs:   cfg.Blobs,
		logger:  logger,
	}

	mux := http.NewServeMux()

	// Creative workflow
	mux.HandleFunc("GET /api/v1/workflow", wh.status)
	mux.HandleFunc("POST /api/v1/workflow/handshake", wh.handshake)
	mux.HandleFunc("GET /api/v1/workflow/questions", wh.questions)
	mux.HandleFunc("POST /api/v1/workflow/answers", wh.answer)
	mux.HandleFunc("POST /api/v1/workflow/generate", wh.generate)
	mux.HandleFunc("POST /api/v1/workflow/edits", wh.edit)
	mux.HandleFunc("POST /api/v1/workflow/finalize", wh.finalize)
	mux.HandleFunc("POST /api/v1/workflow/back", wh.back)
	mux.HandleFunc("POST /api/v1/workflow/reset", wh.reset)

	// Gallery
	mux.HandleFunc("POST /api/v1/gallery", gh.save)
	mux.HandleFunc("GET /api/v1/gallery", gh.list)
	mux.HandleFunc("GET /api/v1/gallery/{id}", gh.get)
	mux.HandleFunc("DELETE /api/v1/gallery/{id}", gh.delete)
	mux.HandleFunc("GET /api/v1/gallery/{id}/files/{name}", gh.file)

	// Per-IP token bucket; the limiter owns the default burst.
	rl := newRateLimiter(cfg.RateBurst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Owner → Routes
	// RequestID precedes Logging so request_id is available in log
	// attributes; CORS precedes RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = ownerMiddleware(om)(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
