// Package api serves the leaderboard, live sessions and metrics over HTTP.
package api

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tomz197/galaxyblaster/internal/metrics"
	"github.com/tomz197/galaxyblaster/internal/raster"
	"github.com/tomz197/galaxyblaster/internal/score"
	"github.com/tomz197/galaxyblaster/internal/session"
)

// Config holds the router's dependencies. Scores is required; the session
// routes and the websocket are mounted only when Sessions is set.
type Config struct {
	Scores   score.Store
	Sessions *session.Registry
	Hub      *Hub
	Metrics  *metrics.Metrics
	Raster   *raster.Rasterizer

	// RateLimiter defaults to one built from DefaultRateLimitConfig.
	RateLimiter *IPRateLimiter
	CORSOrigins []string
	Logger      *log.Logger

	// Index, if set, is served at "/".
	Index http.Handler
}

// sessionLookup is the part of the session registry the handlers read.
type sessionLookup interface {
	Len() int
	List() []session.Info
	Get(id int) (*session.Session, error)
}

type handlers struct {
	scores   score.Store
	sessions sessionLookup
	raster   *raster.Rasterizer
	log      *log.Logger
}

// DefaultCORSOrigins allows local development pages.
var DefaultCORSOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// NewRouter builds the HTTP handler. It starts no goroutines; run cfg.Hub
// separately.
func NewRouter(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	origins := cfg.CORSOrigins
	if origins == nil {
		origins = DefaultCORSOrigins
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = NewIPRateLimiter(DefaultRateLimitConfig)
	}
	if cfg.Metrics != nil && limiter.OnReject == nil {
		limiter.OnReject = func() { cfg.Metrics.RejectConnection("rate_limit") }
	}
	rast := cfg.Raster
	if rast == nil {
		rast = raster.New(1)
	}

	h := &handlers{
		scores: cfg.Scores,
		raster: rast,
		log:    logger,
	}
	if cfg.Sessions != nil {
		h.sessions = cfg.Sessions
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.health)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/highscores", h.highScores)
		if cfg.Sessions != nil {
			r.Get("/sessions", h.listSessions)
			r.Get("/sessions/{id}/frame.png", h.sessionFrame)
		}
	})

	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}
	if cfg.Index != nil {
		r.Handle("/", cfg.Index)
	}
	return r
}

// OriginChecker accepts requests without an Origin header, same-host origins
// and origins listed exactly in allowed.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
