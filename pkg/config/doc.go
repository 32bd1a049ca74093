// Package config provides application configuration management from environment variables.
//
// # Overview
//
// LoadConfig starts from defaults, overlays the YAML file named by
// CSN_CONFIG_FILE when set, then applies CSN_* environment variables.
// Environment variables always win. The result is validated once at startup.
//
// # Configuration Structure
//
// Server settings:
//
//	CSN_ENV="production"  # development, production
//	CSN_HOST="0.0.0.0"
//	CSN_PORT="8080"
//	CSN_READ_TIMEOUT="15s"
//	CSN_CORS_ORIGINS="https://admin.csn.example"
//
// Authentication:
//
//	CSN_AUTH_ISSUER_URL="https://clerk.csn.example"
//	CSN_AUTH_CLIENT_ID="csn-admin"
//	CSN_AUTH_JWKS_URL=""          # optional, skips discovery
//	CSN_AUTH_CACHE_TTL="1m"
//	CSN_AUTH_DEV_BYPASS="false"   # refused when CSN_ENV=production
//
// Organization membership:
//
//	CSN_ORG_ID="org_2abc"
//	CSN_ORG_MIN_ROLE="admin"      # member, admin (org: prefix accepted)
//	CSN_ORG_REQUIRED="true"
//
// Audit:
//
//	CSN_AUDIT_SINK="log"          # log, file, db, multi
//	CSN_AUDIT_FILE_DIR="/var/log/csn-admin"
//	CSN_AUDIT_DATABASE_URL="postgres://localhost/csn?sslmode=disable"
//
// Observability settings:
//
//	CSN_LOG_LEVEL="info"  # debug, info, warn, error
//	CSN_LOG_FORMAT="json" # json, text
//	CSN_METRICS_ENABLED="true"
//	CSN_OTEL_ENABLED="true"
//	CSN_OTEL_ENDPOINT="otel-collector:4317"
//
// The same settings in YAML use the snake_case keys of the struct tags:
//
//	organization:
//	  id: org_2abc
//	  min_role: admin
//	audit:
//	  sink: file
//	  file_dir: /var/log/csn-admin
package config
