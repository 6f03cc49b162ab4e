package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const defaultPort = "8080"

type Config struct {
	databaseURL      string
	sentryDSN        string
	adminPassword    string
	sessionSecret    string
	resendWebhookURL string
	allowedOrigins   []string
	port             string
	otelEnabled      bool
	gcpProject       string
	env              environment
}

func (c *Config) DatabaseURL() string {
	return c.databaseURL
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) AdminPassword() string {
	return c.adminPassword
}

func (c *Config) SessionSecret() string {
	return c.sessionSecret
}

// Empty when resends are only recorded
func (c *Config) ResendWebhookURL() string {
	return c.resendWebhookURL
}

// Host suffixes accepted by CORS in addition to localhost
func (c *Config) AllowedOrigins() []string {
	return c.allowedOrigins
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

func (c *Config) GCPProject() string {
	return c.gcpProject
}

func (c *Config) EnvironmentName() string {
	return string(c.env)
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, otel: %t, resendWebhook: %t, allowedOrigins: %v, ...}",
		string(c.env), c.port, c.otelEnabled, c.resendWebhookURL != "", c.allowedOrigins,
	)
}

// LoadDotEnv reads variables from the given files into the environment.
// Variables already set take precedence, and missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	for _, filename := range filenames {
		err := godotenv.Load(filename)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", filename, err)
		}
	}
	return nil
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("DISPAROS_ENVIRONMENT")
	if !ok {
		return missingKey("DISPAROS_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: DISPAROS_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	sentryDSN := os.Getenv("SENTRY_DSN")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	sessionSecret := os.Getenv("SESSION_SECRET")
	resendWebhookURL := os.Getenv("RESEND_WEBHOOK_URL")
	gcpProject := os.Getenv("GCP_PROJECT")

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return Config{}, fmt.Errorf("%w: PORT (%s)", ErrInvalidValue, port)
	}

	otelEnabled := false
	if rawOTel := os.Getenv("OTEL_ENABLED"); rawOTel != "" {
		parsed, err := strconv.ParseBool(rawOTel)
		if err != nil {
			return Config{}, fmt.Errorf("%w: OTEL_ENABLED (%s)", ErrInvalidValue, rawOTel)
		}
		otelEnabled = parsed
	}

	var allowedOrigins []string
	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins = append(allowedOrigins, origin)
		}
	}

	if env == production || env == staging {
		if databaseURL == "" {
			return missingKey("DATABASE_URL")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if adminPassword == "" {
			return missingKey("ADMIN_PASSWORD")
		}
		if sessionSecret == "" {
			return missingKey("SESSION_SECRET")
		}
	}

	return Config{
		databaseURL:      databaseURL,
		sentryDSN:        sentryDSN,
		adminPassword:    adminPassword,
		sessionSecret:    sessionSecret,
		resendWebhookURL: resendWebhookURL,
		allowedOrigins:   allowedOrigins,
		port:             port,
		otelEnabled:      otelEnabled,
		gcpProject:       gcpProject,
		env:              env,
	}, nil
}
