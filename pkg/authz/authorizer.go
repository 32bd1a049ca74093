package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/csnsports/csn-admin/pkg/auth"
	"github.com/csnsports/csn-admin/pkg/contextkeys"
	"github.com/csnsports/csn-admin/pkg/observability"
	"github.com/csnsports/csn-admin/pkg/rbac"
)

const tracerName = "github.com/csnsports/csn-admin/pkg/authz"

// Result is the outcome of a single authorization request. It is built fresh
// for every call and never stored.
type Result struct {
	Authorized bool      `json:"authorized"`
	UserID     string    `json:"userId,omitempty"`
	UserRole   rbac.Role `json:"userRole,omitempty"`
	Error      string    `json:"error,omitempty"`
	Kind       Kind      `json:"kind,omitempty"`
}

// Err returns nil for an authorized result and a *DeniedError otherwise
func (r Result) Err() error {
	if r.Authorized {
		return nil
	}
	return &DeniedError{Kind: r.Kind, Reason: r.Error}
}

func deny(kind Kind, reason string) Result {
	return Result{Authorized: false, Error: reason, Kind: kind}
}

// Config controls the organization membership check
type Config struct {
	// OrganizationID is the organization every admin must belong to
	OrganizationID string
	// MinOrgRole is the lowest organization role that passes
	MinOrgRole auth.OrgRole
	// RequireOrganization disables the membership check when false
	RequireOrganization bool
}

// DefaultConfig requires organization admins
func DefaultConfig(orgID string) Config {
	return Config{
		OrganizationID:      orgID,
		MinOrgRole:          auth.OrgRoleAdmin,
		RequireOrganization: true,
	}
}

// DecisionRecorder receives every decision. observability.Metrics implements it.
type DecisionRecorder interface {
	RecordDecision(kind string, authorized bool, duration time.Duration)
}

// Authorizer is the single decision point for admin operations
type Authorizer struct {
	resolver *auth.Resolver
	config   Config
	logger   logrus.FieldLogger
	recorder DecisionRecorder
	tracer   trace.Tracer
}

// Option configures an Authorizer
type Option func(*Authorizer)

// WithLogger sets the logger used for denial messages
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Authorizer) {
		a.logger = logger
	}
}

// WithRecorder sets the decision recorder
func WithRecorder(recorder DecisionRecorder) Option {
	return func(a *Authorizer) {
		a.recorder = recorder
	}
}

// WithTracerProvider overrides the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Authorizer) {
		a.tracer = tp.Tracer(tracerName)
	}
}

// NewAuthorizer creates an authorizer over resolver
func NewAuthorizer(resolver *auth.Resolver, config Config, opts ...Option) *Authorizer {
	a := &Authorizer{
		resolver: resolver,
		config:   config,
		logger:   logrus.StandardLogger(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authorize decides whether the current caller may proceed. An empty
// permission means only organization membership and a valid admin role are
// required. Checks run in order and stop at the first failure:
// identity, organization, admin role, permission.
func (a *Authorizer) Authorize(ctx context.Context, required rbac.Permission) Result {
	ctx, span := a.tracer.Start(ctx, "authz.Authorize")
	defer span.End()
	if required != "" {
		span.SetAttributes(attribute.String("authz.permission", string(required)))
	}

	start := time.Now()
	identity, result := a.authenticate(ctx)
	if result.Kind == KindNone {
		result = a.checkRole(identity, required)
	}
	a.finish(ctx, span, result, required, time.Since(start))
	return result
}

// RequireRole is Authorize with a role requirement instead of a permission.
// TopRole satisfies every requirement; an empty role accepts any valid role.
func (a *Authorizer) RequireRole(ctx context.Context, role rbac.Role) Result {
	ctx, span := a.tracer.Start(ctx, "authz.RequireRole")
	defer span.End()
	span.SetAttributes(attribute.String("authz.role", string(role)))

	start := time.Now()
	identity, result := a.authenticate(ctx)
	if result.Kind == KindNone {
		switch {
		case !identity.AdminRole.Valid():
			result = deny(KindInvalidRole, ReasonInvalidRole)
		case !rbac.ValidateRole(string(identity.AdminRole.Role), role):
			result = deny(KindInsufficientPermission, fmt.Sprintf("User lacks required role: %s", role))
		default:
			result = Result{Authorized: true, UserID: identity.UserID, UserRole: identity.AdminRole.Role}
		}
	}
	a.finish(ctx, span, result, "", time.Since(start))
	return result
}

// authenticate runs the identity and organization steps. A zero Kind in the
// returned result means both passed.
func (a *Authorizer) authenticate(ctx context.Context) (*auth.Identity, Result) {
	identity, err := a.resolver.Resolve(ctx)
	if err != nil {
		a.logger.WithError(err).Debug("identity resolution failed")
		return nil, deny(KindNotAuthenticated, ReasonNotAuthenticated)
	}

	if a.config.RequireOrganization && !a.isOrgMember(identity) {
		return identity, deny(KindOrganizationMismatch, ReasonOrganizationMismatch)
	}

	return identity, Result{}
}

func (a *Authorizer) isOrgMember(identity *auth.Identity) bool {
	if a.config.OrganizationID == "" || identity.OrgID != a.config.OrganizationID {
		return false
	}
	return auth.OrgRoleAtLeast(identity.OrgRole, a.config.MinOrgRole)
}

func (a *Authorizer) checkRole(identity *auth.Identity, required rbac.Permission) Result {
	if !identity.AdminRole.Valid() {
		return deny(KindInvalidRole, ReasonInvalidRole)
	}

	role := identity.AdminRole.Role
	if required != "" && !rbac.PermissionsFor(role).Has(required) {
		return deny(KindInsufficientPermission, fmt.Sprintf(reasonLacksPermission, required))
	}

	return Result{Authorized: true, UserID: identity.UserID, UserRole: role}
}

func (a *Authorizer) finish(ctx context.Context, span trace.Span, result Result, required rbac.Permission, elapsed time.Duration) {
	span.SetAttributes(attribute.Bool("authz.authorized", result.Authorized))
	if !result.Authorized {
		span.SetAttributes(attribute.String("authz.kind", string(result.Kind)))
		span.SetStatus(codes.Error, result.Error)

		fields := logrus.Fields{"kind": result.Kind}
		if required != "" {
			fields["permission"] = required
		}
		if requestID := contextkeys.GetRequestID(ctx); requestID != "" {
			fields["request_id"] = requestID
		}
		observability.WithTraceContext(ctx, a.logger).WithFields(fields).Info("authorization denied")
	}

	if a.recorder != nil {
		a.recorder.RecordDecision(string(result.Kind), result.Authorized, elapsed)
	}
}

// IsDenied reports whether err is a denial of the given kind
func IsDenied(err error, kind Kind) bool {
	var denied *DeniedError
	return errors.As(err, &denied) && denied.Kind == kind
}
