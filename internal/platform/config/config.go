package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	platformstrings "survey-gateway/pkg/platform/strings"
)

// Storage drivers accepted by DATABASE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Server captures process-wide configuration. It is read once at startup.
type Server struct {
	Addr     string
	LogLevel string

	Identity  Identity
	Admin     Admin
	Database  Database
	CORS      CORS
	Telemetry Telemetry
}

// Identity configures the external token-introspection call.
type Identity struct {
	ClientID     string
	TokenInfoURL string
	Timeout      time.Duration
}

// Admin lists the identities allowed to export.
type Admin struct {
	Emails []string
}

// Database selects and configures the submission store.
type Database struct {
	Driver       string
	URL          string
	MaxOpenConns int
}

// CORS configures cross-origin access for the survey front-end.
type CORS struct {
	AllowedOrigins []string
}

// Telemetry configures tracing export.
type Telemetry struct {
	OTLPEndpoint string
	ServiceName  string
}

type serverEnv struct {
	Addr           string        `env:"ADDR"`
	Port           string        `env:"PORT"                  envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL"             envDefault:"info"`
	ClientID       string        `env:"GOOGLE_CLIENT_ID"`
	TokenInfoURL   string        `env:"GOOGLE_TOKENINFO_URL"  envDefault:"https://oauth2.googleapis.com/tokeninfo"`
	Timeout        time.Duration `env:"IDENTITY_TIMEOUT"      envDefault:"5s"`
	AdminEmail     string        `env:"ADMIN_EMAIL"`
	AdminEmails    []string      `env:"ADMIN_EMAILS"          envSeparator:","`
	DBDriver       string        `env:"DATABASE_DRIVER"       envDefault:"sqlite"`
	DBURL          string        `env:"DATABASE_URL"          envDefault:"survey.db"`
	DBMaxOpenConns int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS"  envSeparator:"," envDefault:"*"`
	OTLPEndpoint   string        `env:"OTEL_ENDPOINT"`
	ServiceName    string        `env:"OTEL_SERVICE_NAME"     envDefault:"survey-gateway"`
}

// FromEnv builds and validates a Server config from environment variables.
func FromEnv() (Server, error) {
	var raw serverEnv
	if err := env.Parse(&raw); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}

	addr := raw.Addr
	if addr == "" {
		addr = ":" + strings.TrimPrefix(raw.Port, ":")
	}

	cfg := Server{
		Addr:     addr,
		LogLevel: raw.LogLevel,
		Identity: Identity{
			ClientID:     strings.TrimSpace(raw.ClientID),
			TokenInfoURL: raw.TokenInfoURL,
			Timeout:      raw.Timeout,
		},
		// Emails are compared exactly later, so no case folding happens here.
		Admin: Admin{Emails: platformstrings.DedupeAndTrim(append([]string{raw.AdminEmail}, raw.AdminEmails...))},
		Database: Database{
			Driver:       strings.ToLower(strings.TrimSpace(raw.DBDriver)),
			URL:          raw.DBURL,
			MaxOpenConns: raw.DBMaxOpenConns,
		},
		CORS: CORS{AllowedOrigins: platformstrings.DedupeAndTrim(raw.AllowedOrigins)},
		Telemetry: Telemetry{
			OTLPEndpoint: raw.OTLPEndpoint,
			ServiceName:  raw.ServiceName,
		},
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c Server) Validate() error {
	var errs []error
	if c.Identity.ClientID == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID is required"))
	}
	if c.Identity.TokenInfoURL == "" {
		errs = append(errs, errors.New("GOOGLE_TOKENINFO_URL must not be empty"))
	}
	if c.Identity.Timeout <= 0 {
		errs = append(errs, errors.New("IDENTITY_TIMEOUT must be positive"))
	}
	if len(c.Admin.Emails) == 0 {
		errs = append(errs, errors.New("ADMIN_EMAIL is required"))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}
