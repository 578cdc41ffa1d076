package web

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"

	"casework/internal/adapters/http/middleware"
	"casework/internal/adapters/media"
	"casework/internal/adapters/notify"
	auditStore "casework/internal/adapters/storage/audit"
	incidentStore "casework/internal/adapters/storage/incident"
	caseStore "casework/internal/adapters/storage/injurycase"
	outboxStore "casework/internal/adapters/storage/outbox"
	"casework/internal/application/orchestrators"
)

// Deps holds everything the handlers call.
type Deps struct {
	Cases      caseStore.Store
	Incidents  incidentStore.Store
	Teams      orchestrators.TeamDirectory
	Schedules  orchestrators.ScheduleRegistry
	RehabPlans orchestrators.RehabPlanOracle
	Audit      auditStore.Store
	Media      media.Store
	Sink       notify.Sink
	Outbox     outboxStore.Store
	// OutboxProcessor serves manual retries; nil disables the admin outbox routes.
	OutboxProcessor *orchestrators.OutboxProcessor
	// Health reports whether the process can serve traffic; nil always reports healthy.
	Health     func(ctx context.Context) error
	Now        func() time.Time
	GenerateID func() string
	// Location decides which calendar day "today" is for return dates.
	Location *time.Location
}

// Options configures the middleware stack.
type Options struct {
	// CSRFKey is the 32-byte CSRF secret. A random key is generated when empty.
	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string
	// RateLimitPerSecond controls the per-IP rate limit; 10 when zero.
	RateLimitPerSecond int
	SlowRequest        time.Duration
	Meter              metric.Meter
}

// server binds handlers to their dependencies.
type server struct {
	deps Deps
}

// NewMux wires HTTP handlers for the API.
func NewMux(deps Deps, opts Options) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	s := &server{deps: deps}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	csrfKey := opts.CSRFKey
	if len(csrfKey) == 0 {
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			panic("csrf key: " + err.Error())
		}
		slog.Warn("csrf_key_random", "hint", "set CASEWORK_CSRF_KEY so tokens survive restarts")
	}

	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = 10
	}
	// Rate limiter: requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(rate, time.Second)

	// Apply middleware: Timing -> RateLimit -> SecurityHeaders -> CSRF -> Actor -> Mux
	return middleware.Chain(mux,
		middleware.Actor,
		middleware.CSRF(csrfKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Meter, opts.SlowRequest),
	)
}

func (s *server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/incidents", s.handleReportIncident)
	mux.HandleFunc("GET /api/cases/{id}", s.handleGetCase)
	mux.HandleFunc("GET /api/cases/{id}/transitions", s.handleListTransitions)
	mux.HandleFunc("POST /api/cases/{id}/transitions", s.handleTransitionCase)
	mux.HandleFunc("GET /api/workers/{id}/cases", s.handleListWorkerCases)

	mux.HandleFunc("GET /api/admin/audit", s.handleAdminAudit)
	if s.deps.OutboxProcessor != nil {
		mux.HandleFunc("GET /api/admin/outbox", s.handleAdminOutboxList)
		mux.HandleFunc("POST /api/admin/outbox/{id}/{action}", s.handleAdminOutboxAction)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			slog.Error("health_check_failed", "error", err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
