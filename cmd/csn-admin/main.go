package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/csnsports/csn-admin/pkg/api"
	"github.com/csnsports/csn-admin/pkg/audit"
	"github.com/csnsports/csn-admin/pkg/auth"
	"github.com/csnsports/csn-admin/pkg/authz"
	"github.com/csnsports/csn-admin/pkg/config"
	"github.com/csnsports/csn-admin/pkg/observability"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err != nil {
		logrus.Fatalf("Failed to create logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("csn-admin exited with error")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)
	if otelProviders != nil {
		if err := metrics.EnableOTel(otelProviders.MeterProvider.Meter("csn-admin")); err != nil {
			logger.WithError(err).Warn("Failed to register OpenTelemetry instruments")
		}
	}

	health := observability.NewHealthChecker(version)

	// Sessions come either from verified bearer tokens or, in development
	// only, from the bypass provider.
	var (
		provider auth.IdentityProvider = auth.ContextProvider{}
		verifier auth.TokenVerifier
	)
	if cfg.Auth.DevBypass {
		logger.WithField("org_id", cfg.Organization.ID).
			Warn("DEV AUTH BYPASS ENABLED: every request is treated as System Administrator")
		provider = auth.NewDevBypassProvider(cfg.Organization.ID)
	} else {
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDC())
		if err != nil {
			return err
		}
		verifier = oidcVerifier
		logger.WithField("issuer", cfg.Auth.IssuerURL).Info("OIDC token verification enabled")
	}

	resolver := auth.NewResolver(provider)
	authzConfig := authz.Config{
		OrganizationID:      cfg.Organization.ID,
		MinOrgRole:          cfg.MinOrgRole(),
		RequireOrganization: cfg.Organization.RequireOrg,
	}
	authorizer := authz.NewAuthorizer(resolver, authzConfig,
		authz.WithLogger(logger),
		authz.WithRecorder(metrics),
	)

	sinks, err := buildAuditSinks(cfg.Audit, logger)
	if err != nil {
		return err
	}
	for name, check := range sinks.checks {
		health.AddCheck(name, check, false)
	}
	auditLogger := audit.NewActionLogger(resolver, sinks.sink,
		audit.WithLogger(logger),
		audit.WithRecorder(metrics),
	)

	server := api.NewServer(api.Options{
		Authorizer:   authorizer,
		AuditLogger:  auditLogger,
		AuditReader:  sinks.reader,
		Verifier:     verifier,
		Health:       health,
		Metrics:      metrics,
		Gatherer:     gathererFor(cfg, registry),
		Logger:       logger,
		CORSOrigins:  cfg.Server.CORSOrigins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	// server spans are the parents of the authz.Authorize spans
	var handler http.Handler = server
	if otelProviders != nil {
		handler = otelhttp.NewHandler(server, "csn-admin")
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return errors.Join(auditLogger.Close(), sinks.closeDB())
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})

	go func() {
		defer observability.RecoverPanic(logger, "http server")
		logger.WithFields(logrus.Fields{
			"addr":       httpServer.Addr,
			"version":    version,
			"audit_sink": cfg.Audit.Sink,
		}).Info("Starting CSN admin authorization service")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	return shutdown.WaitForShutdown()
}

func gathererFor(cfg *config.Config, registry *prometheus.Registry) prometheus.Gatherer {
	if !cfg.Observability.MetricsEnabled {
		return nil
	}
	return registry
}
