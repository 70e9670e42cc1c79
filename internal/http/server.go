package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"despesas/internal/cache"
	"despesas/internal/log"
	"despesas/internal/middleware/ratelimit"
	"despesas/internal/middleware/security"
	"despesas/internal/middleware/trace"
	"despesas/internal/report"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes a Server. Zero values fall back to the defaults below.
type Options struct {
	Addr            string
	RequestTimeout  time.Duration
	SessionTTL      time.Duration
	SessionCapacity int
	RateLimit       int
	Readiness       Pinger
	Logger          *log.Logger
	// Now is the clock used for the available years list.
	Now func() time.Time
}

const (
	defaultRequestTimeout  = 7 * time.Second
	defaultSessionTTL      = 15 * time.Minute
	defaultSessionCapacity = 256
	cacheCleanupInterval   = time.Minute
)

// Server is the dashboard report API.
type Server struct {
	http.Server

	service  *report.Service
	sessions *cache.LRUCache[*report.Session]
	caches   *cache.Manager
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	ready    Pinger
	logger   *log.Logger
	timeout  time.Duration
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(svc *report.Service, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.SessionCapacity <= 0 {
		opts.SessionCapacity = defaultSessionCapacity
	}
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentHTTP)
	} else {
		opts.Logger = opts.Logger.WithComponent(log.ComponentHTTP)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		service:  svc,
		sessions: cache.NewLRUCache[*report.Session](opts.SessionCapacity, opts.SessionTTL),
		caches:   cache.NewManager(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		detector: security.NewDetector(),
		ready:    opts.Readiness,
		logger:   opts.Logger,
		timeout:  opts.RequestTimeout,
		now:      opts.Now,
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)
	s.caches.Register(s.sessions)
	s.caches.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/years", s.handleYears)
	api.HandleFunc("GET /api/cards", s.handleCards)
	api.HandleFunc("GET /api/cards/{card}/years/{year}/months", s.handleMonths)
	api.HandleFunc("GET /api/cards/{card}/years/{year}/months/{month}/report", s.handleReport)
	api.HandleFunc("GET /api/cards/{card}/years/{year}/months/{month}/report/filter", s.handleFilter)
	mux.Handle("/api/", s.rateLimited(api))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(s.flagSuspicious(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		// handlers stop at the request timeout; leave room to write the body
		WriteTimeout: opts.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// rateLimited applies the per-client limit and answers 429 as JSON.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		s.respond(w, r, ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later"))
	}
	return s.limiter.Middleware(s.detector.ExtractClientIP, onLimit)(next)
}

// flagSuspicious logs requests that look like probes. They are still served.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

// session returns the caller's report session, creating it on first use,
// and echoes its ID back in the response headers.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*report.Session, string) {
	id, created := sessionID(r)
	sess := s.sessions.GetOrSet(id, func() *report.Session {
		return report.NewSession(s.service)
	})
	w.Header().Set(SessionHeader, id)
	if created {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard session created", log.FieldSessionID, id)
	}
	return sess, id
}

// respond writes b, attaching the request ID to error bodies.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, b *JSONResponseBuilder) {
	if body, ok := b.body.(ErrorBody); ok {
		body.RequestID = trace.GetRequestID(r.Context())
		b.Body(body)
	}
	if err := b.Write(w); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Response write failed", log.FieldError, err)
	}
}

// Sessions returns the number of live dashboard sessions.
func (s *Server) Sessions() int {
	return s.sessions.Size()
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
