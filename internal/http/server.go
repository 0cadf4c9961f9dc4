package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tithe/internal/app"
	applog "tithe/internal/log"
	"tithe/internal/metrics"
	"tithe/internal/middleware/ratelimit"
	"tithe/internal/middleware/security"
	"tithe/internal/middleware/trace"
	"tithe/internal/services"
)

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Ledger  *services.Ledger
	Reports *services.ReportService
	AppCtx  *app.Context
	Metrics *metrics.Metrics
	Logger  *applog.Logger

	// Ready reports whether the backend can serve requests. Nil means always ready.
	Ready func(ctx context.Context) error

	RateLimitPerMinute int
	// TrustedProxies are extra CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
}

type Server struct {
	http.Server

	ledger  *services.Ledger
	reports *services.ReportService
	appCtx  *app.Context
	metrics *metrics.Metrics
	logger  *applog.Logger
	ready   func(ctx context.Context) error

	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	started      time.Time
	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		ledger:  deps.Ledger,
		reports: deps.Reports,
		appCtx:  deps.AppCtx,
		metrics: m,
		logger:  logger.WithComponent(applog.ComponentHTTP),
		ready:   deps.Ready,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
		}),
		detector: security.NewDetector(logger),
		started:  time.Now(),
	}
	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.chain(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", s.handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.handle(mux, "GET /api/members", s.handleListMembers)
	s.handle(mux, "POST /api/members", s.handleCreateMember)
	s.handle(mux, "GET /api/members/{id}", s.handleGetMember)
	s.handle(mux, "PUT /api/members/{id}", s.handleUpdateMember)
	s.handle(mux, "DELETE /api/members/{id}", s.handleDeleteMember)

	s.handle(mux, "GET /api/payments", s.handleListPayments)
	s.handle(mux, "POST /api/payments", s.handleCreatePayment)
	s.handle(mux, "GET /api/payments/{id}", s.handleGetPayment)
	s.handle(mux, "PUT /api/payments/{id}", s.handleUpdatePayment)
	s.handle(mux, "DELETE /api/payments/{id}", s.handleDeletePayment)

	s.handle(mux, "GET /api/reports/{dimension}", s.handleReport)
	s.handle(mux, "GET /api/reports/{dimension}/compare", s.handleCompare)

	s.handle(mux, "GET /api/settings/theme", s.handleGetTheme)
	s.handle(mux, "PUT /api/settings/theme", s.handleSetTheme)
}

// handle registers h with request metrics labelled by its pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	route := func(*http.Request) string { return pattern }
	mux.Handle(pattern, s.metrics.Middleware(route)(h))
}

// chain wraps the mux, outermost first: tracing, security headers,
// suspicious request detection, then write rate limiting.
func (s *Server) chain(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r))
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(next)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	return s.tracer.Middleware(headers.Middleware(s.detector.Middleware(limited)))
}

// Shutdown stops background goroutines and drains the HTTP server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type healthBody struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(healthBody{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

type readyBody struct {
	Status        string `json:"status"`
	Members       int    `json:"members"`
	Payments      int    `json:"payments"`
	ActiveClients int    `json:"active_clients"`
	Requests      int64  `json:"requests"`
	Error         string `json:"error,omitempty"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	body := readyBody{
		Status:        "ready",
		Members:       len(s.ledger.Members()),
		Payments:      len(s.ledger.Payments()),
		ActiveClients: s.rateLimiter.ActiveClients(),
		Requests:      s.tracer.TotalRequests(),
	}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			body.Status = "unavailable"
			body.Error = "backend unavailable"
			NewJSONResponse().Status(http.StatusServiceUnavailable).Data(body).Write(w)
			return
		}
	}
	NewJSONResponse().Data(body).Write(w)
}
