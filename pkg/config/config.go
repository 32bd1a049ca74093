package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/csnsports/csn-admin/pkg/auth"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Audit sink types
const (
	AuditSinkLog   = "log"
	AuditSinkFile  = "file"
	AuditSinkDB    = "db"
	AuditSinkMulti = "multi"
)

// ErrBypassInProduction is returned when the development bypass is enabled
// in a production environment
var ErrBypassInProduction = errors.New("dev auth bypass cannot be enabled in production")

// Config holds all application configuration
type Config struct {
	// Environment is "development" or "production"
	Environment string `yaml:"environment"`

	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Organization  OrganizationConfig  `yaml:"organization"`
	Audit         AuditConfig         `yaml:"audit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// AuthConfig configures bearer token verification
type AuthConfig struct {
	IssuerURL string        `yaml:"issuer_url"`
	ClientID  string        `yaml:"client_id"`
	JWKSURL   string        `yaml:"jwks_url"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	// DevBypass grants every request the top role. Development only.
	DevBypass bool `yaml:"dev_bypass"`
}

// OrganizationConfig configures the organization membership check
type OrganizationConfig struct {
	ID         string `yaml:"id"`
	MinRole    string `yaml:"min_role"`
	RequireOrg bool   `yaml:"require_membership"`
}

// AuditConfig selects where audit records go
type AuditConfig struct {
	Sink         string `yaml:"sink"`
	FileDir      string `yaml:"file_dir"`
	FileMaxSize  int64  `yaml:"file_max_size"`
	FileMaxFiles int    `yaml:"file_max_files"`
	DatabaseURL  string `yaml:"database_url"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	MetricsEnabled bool `yaml:"metrics_enabled"`

	OTelEnabled        bool    `yaml:"otel_enabled"`
	OTelEndpoint       string  `yaml:"otel_endpoint"`
	OTelServiceName    string  `yaml:"otel_service_name"`
	OTelServiceVersion string  `yaml:"otel_service_version"`
	OTelInsecure       bool    `yaml:"otel_insecure"`
	OTelSampleRatio    float64 `yaml:"otel_sample_ratio"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Auth: AuthConfig{
			CacheSize: 1024,
			CacheTTL:  time.Minute,
		},
		Organization: OrganizationConfig{
			MinRole:    string(auth.OrgRoleAdmin),
			RequireOrg: true,
		},
		Audit: AuditConfig{
			Sink:         AuditSinkLog,
			FileMaxSize:  100 * 1024 * 1024,
			FileMaxFiles: 10,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			LogFormat:          "json",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "csn-admin",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
			OTelSampleRatio:    1.0,
		},
	}
}

// LoadConfig loads configuration from the optional YAML file named by
// CSN_CONFIG_FILE, then environment variables, which take precedence.
// The environment is read once; nothing re-reads it later.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := getEnv("CSN_CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path onto c
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides c with any CSN_* variables that are set
func (c *Config) applyEnv() {
	c.Environment = getEnv("CSN_ENV", c.Environment)

	c.Server.Host = getEnv("CSN_HOST", c.Server.Host)
	c.Server.Port = getEnv("CSN_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("CSN_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("CSN_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("CSN_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("CSN_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.MaxBodyBytes = getEnvInt64("CSN_MAX_BODY_BYTES", c.Server.MaxBodyBytes)
	c.Server.CORSOrigins = getEnvList("CSN_CORS_ORIGINS", c.Server.CORSOrigins)

	c.Auth.IssuerURL = getEnv("CSN_AUTH_ISSUER_URL", c.Auth.IssuerURL)
	c.Auth.ClientID = getEnv("CSN_AUTH_CLIENT_ID", c.Auth.ClientID)
	c.Auth.JWKSURL = getEnv("CSN_AUTH_JWKS_URL", c.Auth.JWKSURL)
	c.Auth.CacheSize = getEnvInt("CSN_AUTH_CACHE_SIZE", c.Auth.CacheSize)
	c.Auth.CacheTTL = getEnvDuration("CSN_AUTH_CACHE_TTL", c.Auth.CacheTTL)
	c.Auth.DevBypass = getEnvBool("CSN_AUTH_DEV_BYPASS", c.Auth.DevBypass)

	c.Organization.ID = getEnv("CSN_ORG_ID", c.Organization.ID)
	c.Organization.MinRole = getEnv("CSN_ORG_MIN_ROLE", c.Organization.MinRole)
	c.Organization.RequireOrg = getEnvBool("CSN_ORG_REQUIRED", c.Organization.RequireOrg)

	c.Audit.Sink = strings.ToLower(getEnv("CSN_AUDIT_SINK", c.Audit.Sink))
	c.Audit.FileDir = getEnv("CSN_AUDIT_FILE_DIR", c.Audit.FileDir)
	c.Audit.FileMaxSize = getEnvInt64("CSN_AUDIT_FILE_MAX_SIZE", c.Audit.FileMaxSize)
	c.Audit.FileMaxFiles = getEnvInt("CSN_AUDIT_FILE_MAX_FILES", c.Audit.FileMaxFiles)
	c.Audit.DatabaseURL = getEnv("CSN_AUDIT_DATABASE_URL", c.Audit.DatabaseURL)

	c.Observability.LogLevel = getEnv("CSN_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("CSN_LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.MetricsEnabled = getEnvBool("CSN_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("CSN_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("CSN_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("CSN_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("CSN_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("CSN_OTEL_INSECURE", c.Observability.OTelInsecure)
	c.Observability.OTelSampleRatio = getEnvFloat("CSN_OTEL_SAMPLE_RATIO", c.Observability.OTelSampleRatio)
}

// IsProduction reports whether the environment is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Auth.DevBypass && c.IsProduction() {
		return ErrBypassInProduction
	}
	if !c.Auth.DevBypass {
		if c.Auth.IssuerURL == "" {
			return fmt.Errorf("auth issuer URL is required unless the dev bypass is enabled")
		}
		if c.Auth.ClientID == "" {
			return fmt.Errorf("auth client ID is required unless the dev bypass is enabled")
		}
	}

	if c.Organization.RequireOrg && c.Organization.ID == "" {
		return fmt.Errorf("organization ID is required when membership is enforced")
	}
	if _, ok := auth.ParseOrgRole(c.Organization.MinRole); !ok {
		return fmt.Errorf("invalid organization minimum role: %q (must be member or admin)", c.Organization.MinRole)
	}

	switch c.Audit.Sink {
	case AuditSinkLog:
	case AuditSinkFile:
		if c.Audit.FileDir == "" {
			return fmt.Errorf("audit file directory is required for file sink")
		}
	case AuditSinkDB:
		if c.Audit.DatabaseURL == "" {
			return fmt.Errorf("audit database URL is required for db sink")
		}
	case AuditSinkMulti:
		if c.Audit.FileDir == "" && c.Audit.DatabaseURL == "" {
			return fmt.Errorf("multi audit sink needs a file directory or database URL")
		}
	default:
		return fmt.Errorf("invalid audit sink: %s (must be log, file, db, or multi)", c.Audit.Sink)
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// MinOrgRole returns the parsed minimum organization role
func (c *Config) MinOrgRole() auth.OrgRole {
	role, ok := auth.ParseOrgRole(c.Organization.MinRole)
	if !ok {
		return auth.OrgRoleAdmin
	}
	return role
}

// OIDC returns the verifier configuration
func (c *Config) OIDC() auth.OIDCConfig {
	cfg := auth.DefaultOIDCConfig()
	cfg.IssuerURL = c.Auth.IssuerURL
	cfg.ClientID = c.Auth.ClientID
	cfg.JWKSURL = c.Auth.JWKSURL
	if c.Auth.CacheSize > 0 {
		cfg.CacheSize = c.Auth.CacheSize
	}
	if c.Auth.CacheTTL > 0 {
		cfg.CacheTTL = c.Auth.CacheTTL
	}
	return cfg
}

// Addr returns host:port for the HTTP listener
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
