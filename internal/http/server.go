package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"subrecommend/internal/core"
	applog "subrecommend/internal/log"
	"subrecommend/internal/middleware/ratelimit"
	"subrecommend/internal/middleware/security"
	"subrecommend/internal/middleware/trace"
	"subrecommend/internal/ports"
)

type (
	// SpendingAPI is what the spending endpoints need from the service layer.
	SpendingAPI interface {
		CreateSpending(ctx context.Context, rec core.SpendingRecord) (core.SpendingRecord, error)
		ListSpending(ctx context.Context, userID string) ([]core.SpendingRecord, error)
	}

	ViewAPI interface {
		TopSpending(ctx context.Context, userID string) (core.TopSpendingView, error)
	}

	RecommendationAPI interface {
		RecommendCategory(ctx context.Context, userID string) (core.Recommendation, error)
	}

	CatalogAPI interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		ListSubscriptionsByCategory(ctx context.Context, category string) ([]core.Subscription, error)
		GetSubscription(ctx context.Context, id string) (core.Subscription, error)
	}
)

// Options configures the middleware shared by both services.
type Options struct {
	Logger             *applog.Logger
	RateLimitPerMinute int
	// Ready is pinged by /readyz. Nil means always ready.
	Ready ports.Pinger
	// Today supplies the default date of new records.
	Today func() core.Date
	// TrustedProxies are CIDRs, beyond loopback and private networks, whose
	// X-Forwarded-For header is honoured.
	TrustedProxies []string
}

type Server struct {
	http.Server
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	ready    ports.Pinger
	today    func() core.Date

	spending        SpendingAPI
	views           ViewAPI
	recommendations RecommendationAPI
	catalog         CatalogAPI

	shutdownOnce sync.Once
}

func newServer(addr string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Today == nil {
		opts.Today = core.Today
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			opts.Logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s := &Server{
		Server: http.Server{
			Addr:           addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16, // 64KB
		},
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		ready:    opts.Ready,
		today:    opts.Today,
	}
	return s
}

// baseRouter installs the middleware stack and the health endpoints.
func (s *Server) baseRouter(logger *applog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(applog.Middleware(logger.WithComponent(applog.ComponentHTTP)))
	r.Use(applog.RequestIDMiddleware(trace.RequestID))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusBadRequest, codeSuspiciousRequest, "Request rejected")
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	return r
}

func (s *Server) rateLimited() func(http.Handler) http.Handler {
	return s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusTooManyRequests, codeRateLimited, "Rate limit exceeded. Please try again later.")
	})
}

// NewSpendingServer serves the spending write API.
func NewSpendingServer(addr string, spending SpendingAPI, opts Options) *Server {
	s := newServer(addr, opts)
	s.spending = spending

	r := s.baseRouter(opts.Logger)
	r.Route("/api/spending", func(r chi.Router) {
		r.With(s.rateLimited()).Post("/", s.handleCreateSpending)
		r.Get("/", s.handleListSpending)
	})

	s.Handler = r
	return s
}

// NewRecommendationServer serves the top spending view, recommendations and
// the subscription catalog.
func NewRecommendationServer(addr string, views ViewAPI, recommendations RecommendationAPI, catalog CatalogAPI, opts Options) *Server {
	s := newServer(addr, opts)
	s.views = views
	s.recommendations = recommendations
	s.catalog = catalog

	r := s.baseRouter(opts.Logger)
	r.Route("/api", func(r chi.Router) {
		r.Get("/spending/top-category", s.handleTopCategory)
		r.Get("/recommendations/category", s.handleRecommendCategory)
		r.Get("/categories", s.handleListCategories)
		r.Get("/subscriptions/by-category", s.handleSubscriptionsByCategory)
		r.Get("/subscriptions/{subscriptionID}", s.handleGetSubscription)
	})

	s.Handler = r
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, codeNotReady, "Store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, s.readyResponse())
}

func (s *Server) readyResponse() readyResponse {
	requests := s.tracer.GetMetrics()
	detection := s.detector.GetMetrics()
	return readyResponse{
		Status: "ready",
		Metrics: serverMetrics{
			TotalRequests:      requests.TotalRequests,
			ServerErrors:       requests.ServerErrors,
			LastResponseTimeUs: requests.LastResponseTimeUs,
			SuspiciousRequests: detection.SuspiciousRequests,
			BlockedRequests:    detection.BlockedRequests,
			RateLimited:        s.limiter.Rejected(),
		},
	}
}

// Shutdown gracefully shuts down the server and the rate limiter
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Close stops the rate limiter without serving. Used by tests that never
// call ListenAndServe.
func (s *Server) Close() error {
	s.limiter.Stop()
	return s.Server.Close()
}
