package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/Amund211/disparos/internal/adapters/database"
	"github.com/Amund211/disparos/internal/adapters/resendrepository"
	"github.com/Amund211/disparos/internal/adapters/resendwebhook"
	"github.com/Amund211/disparos/internal/adapters/userrepository"
	"github.com/Amund211/disparos/internal/app"
	"github.com/Amund211/disparos/internal/config"
	"github.com/Amund211/disparos/internal/logging"
	"github.com/Amund211/disparos/internal/ports"
	"github.com/Amund211/disparos/internal/reporting"
	"github.com/Amund211/disparos/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"
)

const serviceName = "disparos"

func main() {
	ctx := context.Background()

	instanceID := uuid.New().String()

	fail := func(msg string, args ...any) {
		slog.Error(msg, args...)
		os.Exit(1)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fail("Failed to load .env", "error", err.Error())
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

	logger := slog.New(
		logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil), config.GCPProject()),
	).With("instanceID", instanceID)
	slog.SetDefault(logger)

	logger.Info("Loaded config", "config", config.NonSensitiveString())

	if config.OTelEnabled() {
		shutdown, err := telemetry.SetupOTelSDK(ctx, serviceName, config.EnvironmentName())
		if err != nil {
			fail("Failed to initialize OpenTelemetry", "error", err.Error())
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	location, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		logger.Warn("Failed to load America/Sao_Paulo, falling back to UTC", "error", err.Error())
		location = time.UTC
	}

	logger.Info("Initializing database connection")
	db, err := database.NewDatabaseFromConfig(config)
	if err != nil {
		fail("Failed to initialize database", "error", err.Error())
	}
	defer db.Close()
	logger.Info("Initialized database connection")

	repositorySchemaName := database.GetSchemaName(!config.IsProduction())

	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, repositorySchemaName)
	if err != nil {
		fail("Failed to migrate database", "error", err.Error())
	}

	userRepo := userrepository.NewPostgres(db, repositorySchemaName, location, time.Now)
	resendRepo := resendrepository.NewPostgres(db, repositorySchemaName)
	logger.Info("Initialized repositories")

	var resendSender app.ResendSender
	if config.ResendWebhookURL() != "" {
		resendSender = resendwebhook.NewWebhook(&http.Client{Timeout: 10 * time.Second}, config.ResendWebhookURL())
		logger.Info("Initialized resend webhook")
	} else {
		logger.Warn("No resend webhook configured, resend requests will only be recorded")
	}

	allowedOrigins, err := ports.NewAllowedOrigins(config.AllowedOrigins()...)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	sessionSecret := config.SessionSecret()
	if sessionSecret == "" {
		// Sessions do not survive a restart in development
		sessionSecret = uuid.New().String()
		logger.Warn("No session secret configured, using a random one")
	}
	signer := ports.NewSessionSigner(sessionSecret, !config.IsDevelopment())

	middlewares := ports.Middlewares{
		AllowedOrigins:   allowedOrigins,
		IsAuthenticated:  signer.IsAuthenticated,
		RootLogger:       logger,
		SentryMiddleware: sentryMiddleware,
	}

	listUsers := app.BuildListUsers(userRepo)
	createUser := app.BuildCreateUser(userRepo)
	getUser := app.BuildGetUser(userRepo)
	updateUser := app.BuildUpdateUser(userRepo)
	deleteUser := app.BuildDeleteUser(userRepo)
	listUsersWithoutDeposit := app.BuildListUsersWithoutDeposit(userRepo)

	selectEligible := app.BuildSelectEligible(userRepo)
	applyCampaignAction := app.BuildApplyCampaignAction(userRepo, location, time.Now)

	getStats := app.BuildGetStats(userRepo)
	getKPIs := app.BuildGetKPIs(userRepo, location, time.Now)

	listNotifications := app.BuildListNotifications(userRepo)
	exportNotifications := app.BuildExportNotifications(userRepo)
	getNotification := app.BuildGetNotification(userRepo, time.Now)
	getNotificationChart := app.BuildGetNotificationChart(userRepo, location, time.Now)
	resendNotification := app.BuildResendNotification(getNotification, resendSender, resendRepo, time.Now)

	checkHealth := app.BuildCheckHealth(userRepo)

	mux := http.NewServeMux()

	mux.HandleFunc("OPTIONS /", ports.BuildCORSHandler(allowedOrigins))

	mux.HandleFunc("GET /healthz", ports.MakeHealthHandler(checkHealth, middlewares))

	mux.HandleFunc("POST /login", ports.MakeLoginHandler(signer, config.AdminPassword(), middlewares))
	mux.HandleFunc("POST /logout", ports.MakeLogoutHandler(signer, middlewares))

	mux.HandleFunc("GET /users", ports.MakeListUsersHandler(listUsers, location, middlewares))
	mux.HandleFunc("POST /users", ports.MakeCreateUserHandler(createUser, middlewares))
	mux.HandleFunc("GET /users/stats", ports.MakeGetStatsHandler(getStats, middlewares))
	mux.HandleFunc("GET /users/campaigns", ports.MakeSelectEligibleHandler(selectEligible, middlewares))
	mux.HandleFunc("GET /users/without-deposit", ports.MakeListUsersWithoutDepositHandler(listUsersWithoutDeposit, middlewares))
	mux.HandleFunc("GET /users/{email}", ports.MakeGetUserHandler(getUser, middlewares))
	mux.HandleFunc("PUT /users/{email}", ports.MakeUpdateUserHandler(updateUser, middlewares))
	mux.HandleFunc("DELETE /users/{email}", ports.MakeDeleteUserHandler(deleteUser, middlewares))
	mux.HandleFunc(
		"POST /users/{email}/campaign-actions",
		ports.MakeApplyCampaignActionHandler(applyCampaignAction, middlewares),
	)

	mux.HandleFunc("GET /dashboard/kpis", ports.MakeGetKPIsHandler(getKPIs, middlewares))

	mux.HandleFunc("GET /notifications", ports.MakeListNotificationsHandler(listNotifications, location, middlewares))
	mux.HandleFunc(
		"GET /notifications/export",
		ports.MakeExportNotificationsHandler(exportNotifications, location, time.Now, middlewares),
	)
	mux.HandleFunc("GET /notifications/chart", ports.MakeGetNotificationChartHandler(getNotificationChart, middlewares))
	mux.HandleFunc("GET /notifications/{id}", ports.MakeGetNotificationHandler(getNotification, middlewares))
	mux.HandleFunc("POST /notifications/{id}/resend", ports.MakeResendNotificationHandler(resendNotification, middlewares))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port()),
		Handler:           otelhttp.NewHandler(mux, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Init complete", "port", config.Port())
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
