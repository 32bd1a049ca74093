package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/csnsports/csn-admin/pkg/audit"
	"github.com/csnsports/csn-admin/pkg/auth"
	"github.com/csnsports/csn-admin/pkg/authz"
	"github.com/csnsports/csn-admin/pkg/httputil"
	"github.com/csnsports/csn-admin/pkg/middleware"
	"github.com/csnsports/csn-admin/pkg/observability"
	"github.com/csnsports/csn-admin/pkg/rbac"
)

// Options wires the server to its collaborators. Authorizer and AuditLogger
// are required; everything else is optional.
type Options struct {
	Authorizer  *authz.Authorizer
	AuditLogger *audit.ActionLogger

	// AuditReader serves GET /api/v1/audit/records when set
	AuditReader audit.Reader

	// Verifier authenticates bearer tokens. Nil when sessions come from
	// somewhere else, such as the development bypass.
	Verifier auth.TokenVerifier

	Health   *observability.HealthChecker
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Logger   logrus.FieldLogger

	CORSOrigins  []string
	MaxBodyBytes int64
}

// Server represents our API server
type Server struct {
	router      *mux.Router
	handler     http.Handler
	authorizer  *authz.Authorizer
	auditLogger *audit.ActionLogger
	auditReader audit.Reader
	logger      logrus.FieldLogger
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Server{
		router:      mux.NewRouter(),
		authorizer:  opts.Authorizer,
		auditLogger: opts.AuditLogger,
		auditReader: opts.AuditReader,
		logger:      logger,
	}

	s.setupMiddleware(opts)
	s.setupRoutes(opts)

	// CORS wraps the router itself so preflight requests are answered
	// before method matching rejects them
	s.handler = s.router
	if len(opts.CORSOrigins) > 0 {
		s.handler = httputil.CORSMiddleware(opts.CORSOrigins)(s.router)
	}
	return s
}

// setupMiddleware installs the router-wide chain. Order matters: the request
// ID and session must be on the context before the access log line is written.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(httputil.RecoveryMiddleware(s.logger))
	s.router.Use(middleware.RequestID)
	if opts.Verifier != nil {
		var recorder middleware.VerificationRecorder
		if opts.Metrics != nil {
			recorder = opts.Metrics
		}
		s.router.Use(middleware.Authenticate(opts.Verifier, s.logger, recorder))
	}
	s.router.Use(httputil.LoggingMiddleware(s.logger))
	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))
	}
	if opts.MaxBodyBytes > 0 {
		s.router.Use(httputil.MaxBytesMiddleware(opts.MaxBodyBytes))
	}
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes(opts Options) {
	if opts.Health != nil {
		s.router.HandleFunc("/healthz", opts.Health.Liveness).Methods(http.MethodGet)
		s.router.HandleFunc("/readyz", opts.Health.Readiness).Methods(http.MethodGet)
	}
	if opts.Gatherer != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(opts.Gatherer)).Methods(http.MethodGet)
	}

	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	// Authorization checks for the web tier
	v1.HandleFunc("/authz/check", s.checkAuthorization).Methods(http.MethodGet)

	// Read-only role table
	rbac.NewHandlers().RegisterRoutes(v1)

	// Audit
	v1.Handle("/audit/actions", httputil.Chain(
		middleware.RequirePermission(s.authorizer, ""),
		httputil.ContentTypeMiddleware,
	)(http.HandlerFunc(s.recordAction))).Methods(http.MethodPost)

	v1.Handle("/audit/records",
		middleware.RequirePermission(s.authorizer, rbac.PermReadAudit)(http.HandlerFunc(s.listAuditRecords)),
	).Methods(http.MethodGet)
}

// Router exposes the underlying router for tests and extra registrations
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar under /api/v1
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router.PathPrefix("/api/v1").Subrouter())
}
