package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/riverqueue/river/rivertype"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"eventmanager/config"
	"eventmanager/internal/adapters/auth"
	"eventmanager/internal/adapters/email"
	httpdelivery "eventmanager/internal/delivery/http"
	"eventmanager/internal/delivery/http/controllers"
	"eventmanager/internal/jobs"
	"eventmanager/internal/metrics"
	"eventmanager/internal/repository/postgres"
	"eventmanager/internal/services"
)

const shutdownTimeout = 15 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the notification workers",
	Long: `Start the HTTP server and the River client that processes notification jobs.

Both stop gracefully on SIGINT/SIGTERM: the server drains in-flight requests and
River lets running jobs finish.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default: $PORT or 8080)")
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	logger := config.NewLogger(cfg)
	logStartupConfig(logger, cfg)
	metrics.Init()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.OpenDB(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	pool, err := postgres.OpenPool(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer pool.Close()

	mailer, err := email.NewMailer(mailerConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("email templates: %w", err)
	}

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	registrationRepo := postgres.NewEventRegistrationRepository(db)

	notifications := services.NewNotificationService(userRepo, eventRepo, registrationRepo, mailer, renderer, logger)
	riverClient, err := jobs.NewClient(pool, jobs.NewWorkers(notifications, logger), logger,
		metrics.RecordJobFailure, []rivertype.Hook{metrics.NewRiverMetricsHook()}, cfg.QueueMaxWorkers)
	if err != nil {
		return fmt.Errorf("river client: %w", err)
	}
	notifier := jobs.NewNotifier(riverClient)

	registrationSvc := services.NewRegistrationService(registrationRepo, notifier, logger, cfg.RequestTimeout)
	eventSvc := services.NewEventService(postgres.NewTransactor(db), eventRepo, userRepo, registrationSvc, notifier, logger, cfg.RequestTimeout)

	router := httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Events:         controllers.NewEventController(logger, eventSvc),
		Registrations:  controllers.NewRegistrationController(logger, registrationSvc),
		Health:         controllers.NewHealthController(logger, db),
		Verifier:       auth.NewJWTVerifier(cfg.JWTSecret),
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := newHTTPServer(ctx, cfg.Port, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Cancelling the start context would abort running jobs, so shutdown goes through Stop.
		if err := riverClient.Start(context.WithoutCancel(gctx)); err != nil {
			return fmt.Errorf("river workers failed to start: %w", err)
		}
		logger.Info("river workers started", "max_workers", cfg.QueueMaxWorkers)
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			return fmt.Errorf("river shutdown: %w", err)
		}
		logger.Info("river workers stopped")
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "err", err)
		return err
	}
	return nil
}

// newHTTPServer builds the API server. Requests derive their context from ctx without its
// cancellation: a shutdown signal stops new connections while Shutdown drains the ones in flight.
func newHTTPServer(ctx context.Context, port string, handler http.Handler) *http.Server {
	baseCtx := context.WithoutCancel(ctx)
	return &http.Server{
		Addr:              net.JoinHostPort("", port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
}

func mailerConfig(cfg *config.Config) email.MailerConfig {
	return email.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
			Endpoint:           cfg.SESEndpoint,
		},
		Resend: email.ResendConfig{APIKey: cfg.ResendAPIKey},
	}
}

// logStartupConfig logs the settings that are safe to print.
func logStartupConfig(logger *slog.Logger, cfg *config.Config) {
	logger.Info("configuration loaded",
		"env", cfg.Environment,
		"port", cfg.Port,
		"mail_provider", cfg.MailProvider,
		"request_timeout", cfg.RequestTimeout,
		"cors_origins", len(cfg.CORSAllowedOrigins),
		"log_level", cfg.LogLevel.String(),
	)
}
