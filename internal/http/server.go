package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	applog "expenseadvisor/internal/log"
	"expenseadvisor/internal/metrics"
	"expenseadvisor/internal/middleware/ratelimit"
	"expenseadvisor/internal/middleware/security"
	"expenseadvisor/internal/middleware/trace"
	appweb "expenseadvisor/web"
)

// Config holds the presentation settings of the server.
type Config struct {
	Addr               string
	CurrencySymbol     string
	RateLimitPerMinute int
	TrustedProxies     []string
}

type Server struct {
	http.Server
	svc       LedgerService
	templates *template.Template
	currency  string
	logger    *applog.Logger

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	started     time.Time
	// behind a trusted proxy the incoming X-Request-ID is kept
	behindProxy bool

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server. A template parse failure is logged and reported
// by /readyz; pages then answer 500.
func NewServer(cfg Config, svc LedgerService, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = "₹"
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:      svc,
		currency: cfg.CurrencySymbol,
		logger:   logger,
		detector: security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
		started:     time.Now(),
		behindProxy: len(cfg.TrustedProxies) > 0,
	}

	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, applog.FieldError, err)
		}
	}

	t, err := parseTemplates(s.currency)
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	index := s.withSession(s.handleIndex)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			NotFoundError("Page not found").Write(w)
			return
		}
		index(w, r)
	})
	mux.HandleFunc("/expenses", s.withSession(s.handleCreateExpense))
	mux.HandleFunc("/settings", s.withSession(s.handleUpdateBudget))
	mux.HandleFunc("/export.csv", s.withSession(s.handleExportCSV))
	// UI partials
	mux.HandleFunc("/ui/ledger", s.withSession(s.handlePartial("ledger")))
	mux.HandleFunc("/ui/summary", s.withSession(s.handlePartial("summary")))
	mux.HandleFunc("/ui/charts", s.withSession(s.handlePartial("charts")))

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", metrics.Handler())

	s.Handler = s.middleware(mux)
	return s
}

// middleware wraps h so that, from the outside in: the logger is in the
// context, the request is traced, security headers are set, suspicious
// requests are logged and POSTs are rate limited.
func (s *Server) middleware(h http.Handler) http.Handler {
	observe := func(r *http.Request, status int, elapsed time.Duration) {
		metrics.ObserveRequest(routeLabel(r.URL.Path), status, elapsed)
	}

	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited, http.MethodPost)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	tr := trace.NewMiddleware(s.detector.ExtractClientIP, observe)
	tr.AcceptIncoming = s.behindProxy
	h = tr.Middleware(h)
	return applog.Middleware(s.logger)(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request, d ratelimit.Decision) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		"retry_after_s", d.RetryAfterSeconds())

	NewResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification(fmt.Sprintf("Too many requests. Please wait %ds and try again.", d.RetryAfterSeconds())).
		BodyHTML(`<div class="error">Rate limit exceeded. Please try again later.</div>`).
		Write(w)
}

// Shutdown stops the rate limiter and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}
