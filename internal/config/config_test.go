package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Amund211/disparos/internal/config"
	"github.com/stretchr/testify/require"
)

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

var requiredVariables = []string{"DATABASE_URL", "SENTRY_DSN", "ADMIN_PASSWORD", "SESSION_SECRET"}
var optionalVariables = []string{"RESEND_WEBHOOK_URL", "GCP_PROJECT", "CORS_ALLOWED_ORIGINS", "PORT", "OTEL_ENABLED"}

func clearOptional(t *testing.T) {
	t.Helper()
	for _, variable := range optionalVariables {
		t.Setenv(variable, "")
	}
}

func TestGetConfig(t *testing.T) {
	compareConfig := func(databaseURL, sentryDSN, adminPassword, sessionSecret string, env environment, conf config.Config) {
		t.Helper()
		require.Equal(t, databaseURL, conf.DatabaseURL())
		require.Equal(t, sentryDSN, conf.SentryDSN())
		require.Equal(t, adminPassword, conf.AdminPassword())
		require.Equal(t, sessionSecret, conf.SessionSecret())
		require.Equal(t, env == production, conf.IsProduction())
		require.Equal(t, env == staging, conf.IsStaging())
		require.Equal(t, env == development, conf.IsDevelopment())
		require.Equal(t, string(env), conf.EnvironmentName())
	}

	t.Run("ensure base environment is clean", func(t *testing.T) {
		t.Run("environment is missing", func(t *testing.T) {
			// DISPAROS_ENVIRONMENT is required, so this should fail
			_, err := config.ConfigFromEnv()
			require.ErrorIs(t, err, config.ErrMissingRequiredValue)
		})

		t.Run("development environment should be empty", func(t *testing.T) {
			t.Setenv("DISPAROS_ENVIRONMENT", "development")
			clearOptional(t)

			conf, err := config.ConfigFromEnv()
			require.NoError(t, err)
			compareConfig("", "", "", "", development, conf)
			require.Equal(t, "8080", conf.Port())
			require.False(t, conf.OTelEnabled())
			require.Empty(t, conf.ResendWebhookURL())
			require.Empty(t, conf.AllowedOrigins())
		})
	})

	t.Run("values are read correctly", func(t *testing.T) {
		for _, variable := range requiredVariables {
			t.Setenv(variable, variable)
		}
		t.Setenv("RESEND_WEBHOOK_URL", "https://hooks.example.com/resend")
		t.Setenv("GCP_PROJECT", "my-project")
		t.Setenv("CORS_ALLOWED_ORIGINS", "example.com, .example.org,,")
		t.Setenv("PORT", "9000")
		t.Setenv("OTEL_ENABLED", "true")

		for _, env := range []environment{production, staging, development} {
			t.Run(string(env), func(t *testing.T) {
				t.Setenv("DISPAROS_ENVIRONMENT", string(env))

				conf, err := config.ConfigFromEnv()
				require.NoError(t, err)
				compareConfig("DATABASE_URL", "SENTRY_DSN", "ADMIN_PASSWORD", "SESSION_SECRET", env, conf)
				require.Equal(t, "https://hooks.example.com/resend", conf.ResendWebhookURL())
				require.Equal(t, "my-project", conf.GCPProject())
				require.Equal(t, []string{"example.com", ".example.org"}, conf.AllowedOrigins())
				require.Equal(t, "9000", conf.Port())
				require.True(t, conf.OTelEnabled())

				require.NotContains(t, conf.NonSensitiveString(), "ADMIN_PASSWORD")
				require.NotContains(t, conf.NonSensitiveString(), "SESSION_SECRET")
			})
		}
	})

	t.Run("production and staging fail when missing variables", func(t *testing.T) {
		clearOptional(t)
		for _, variable := range requiredVariables {
			t.Setenv(variable, "placeholder_value")
		}

		for _, env := range []environment{production, staging} {
			t.Run(string(env), func(t *testing.T) {
				t.Setenv("DISPAROS_ENVIRONMENT", string(env))

				for _, variable := range requiredVariables {
					t.Run(variable, func(t *testing.T) {
						t.Setenv(variable, "")

						_, err := config.ConfigFromEnv()
						require.ErrorIs(t, err, config.ErrMissingRequiredValue)
					})
				}
			})
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		clearOptional(t)
		t.Setenv("DISPAROS_ENVIRONMENT", "development")

		t.Run("port", func(t *testing.T) {
			for _, port := range []string{"http", "-1", "70000"} {
				t.Setenv("PORT", port)
				_, err := config.ConfigFromEnv()
				require.ErrorIs(t, err, config.ErrInvalidValue)
			}
		})

		t.Run("otel", func(t *testing.T) {
			t.Setenv("OTEL_ENABLED", "maybe")
			_, err := config.ConfigFromEnv()
			require.ErrorIs(t, err, config.ErrInvalidValue)
		})
	})

	t.Run("invalid environment", func(t *testing.T) {
		for _, env := range []string{"", "invalid", "my-env"} {
			t.Run(env, func(t *testing.T) {
				t.Setenv("DISPAROS_ENVIRONMENT", env)
				_, err := config.ConfigFromEnv()
				require.ErrorIs(t, err, config.ErrInvalidValue)
			})
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	err := os.WriteFile(path, []byte("DISPAROS_DOTENV_NEW=from-file\nDISPAROS_DOTENV_SET=from-file\n"), 0o600)
	require.NoError(t, err)

	t.Setenv("DISPAROS_DOTENV_SET", "from-env")
	t.Setenv("DISPAROS_DOTENV_NEW", "")
	require.NoError(t, os.Unsetenv("DISPAROS_DOTENV_NEW"))

	err = config.LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	require.NoError(t, err)

	require.Equal(t, "from-file", os.Getenv("DISPAROS_DOTENV_NEW"))
	require.Equal(t, "from-env", os.Getenv("DISPAROS_DOTENV_SET"))
}
