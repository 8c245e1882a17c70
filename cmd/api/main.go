package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/thepaulgroup/lead-assistant/cmd/mainconfig"
	"github.com/thepaulgroup/lead-assistant/internal/api/router"
	"github.com/thepaulgroup/lead-assistant/internal/app/bootstrap"
	appconfig "github.com/thepaulgroup/lead-assistant/internal/config"
	"github.com/thepaulgroup/lead-assistant/internal/conversation"
	"github.com/thepaulgroup/lead-assistant/internal/faq"
	"github.com/thepaulgroup/lead-assistant/internal/http/handlers"
	httpmiddleware "github.com/thepaulgroup/lead-assistant/internal/http/middleware"
	"github.com/thepaulgroup/lead-assistant/internal/leads"
	"github.com/thepaulgroup/lead-assistant/internal/messaging"
	"github.com/thepaulgroup/lead-assistant/internal/observability/metrics"
	"github.com/thepaulgroup/lead-assistant/internal/webchat"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var awsCfg *aws.Config
	if needsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		awsCfg = &loaded
	}

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	sqlDB := openSQLDB(ctx, cfg.DatabaseURL, logger)
	if sqlDB != nil {
		defer sqlDB.Close()
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsHandler, turnMetrics, gatherer := setupMetrics()

	repos := bootstrap.BuildRepositories(cfg, pool, redisClient, logger)
	openaiClient := bootstrap.BuildOpenAIClient(cfg)

	faqService, err := bootstrap.BuildFAQService(cfg, pool, awsCfg, openaiClient, logger)
	if err != nil {
		logger.Error("failed to build FAQ service", "error", err)
		os.Exit(1)
	}
	chatLLM, closeLLM, err := bootstrap.BuildChatLLM(ctx, cfg, openaiClient, awsCfg, logger)
	if err != nil {
		logger.Error("failed to build chat model", "error", err)
		os.Exit(1)
	}
	defer closeLLM()

	crmClient := bootstrap.BuildCRMClient(cfg, logger)
	machine := bootstrap.BuildMachine(cfg, bootstrap.MachineDeps{
		FAQ:      faqService,
		Chat:     chatLLM,
		CRM:      crmClient,
		Bookings: repos.Appointments,
	}, logger)

	crmSync, err := bootstrap.BuildCRMSync(cfg, awsCfg, repos.Sessions, crmClient, logger)
	if err != nil {
		logger.Error("failed to build CRM sync", "error", err)
		os.Exit(1)
	}
	inlineWorker := startInlineWorker(ctx, cfg, crmSync, logger)

	twilioSender := bootstrap.BuildTwilioSender(cfg, logger)
	notifier := bootstrap.BuildBookingNotifier(cfg, awsCfg, twilioSender, logger)

	var transcripts *conversation.TranscriptStore
	if sqlDB != nil {
		transcripts = conversation.NewTranscriptStore(sqlDB)
	}

	svcOpts := []conversation.ServiceOption{
		conversation.WithBookingNotifier(notifier),
		conversation.WithObserver(turnMetrics),
		conversation.WithLogger(logger),
	}
	if transcripts != nil {
		svcOpts = append(svcOpts, conversation.WithTranscripts(transcripts))
	}
	if crmSync != nil {
		svcOpts = append(svcOpts, conversation.WithSyncPublisher(crmSync.Publisher))
	}
	service := conversation.NewService(repos.Sessions, machine, svcOpts...)

	routerCfg := &router.Config{
		Logger:  logger,
		WebChat: webchat.NewHandler(service, logger),
		SMS: messaging.NewHandler(messaging.HandlerConfig{
			AuthToken:      cfg.TwilioAuthToken,
			WebhookBaseURL: cfg.TwilioWebhookBaseURL,
			SkipSignature:  cfg.TwilioSkipSignature,
		}, service, logger),
		LeadsHandler: leads.NewHandler(repos.Sessions, repos.Appointments, logger),
		AdminAuth: handlers.NewAdminAuthHandler(handlers.AdminAuthConfig{
			Username:  cfg.AdminUsername,
			Password:  cfg.AdminPassword,
			JWTSecret: cfg.AdminJWTSecret,
			TokenTTL:  cfg.AdminTokenTTL,
		}, logger),
		AdminStats:         handlers.NewAdminStatsHandler(gatherer, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatLimiter:        buildLimiter(cfg, redisClient),
	}
	if transcripts != nil {
		routerCfg.ConversationHandler = conversation.NewHandler(transcripts, logger)
	}
	if faqService != nil {
		routerCfg.DatasetHandler = faq.NewHandler(faqService, logger)
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if inlineWorker {
		crmSync.Worker.Wait()
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// needsAWS reports whether any AWS-backed component is configured.
func needsAWS(cfg *appconfig.Config) bool {
	if strings.TrimSpace(cfg.DatasetBucket) != "" || strings.TrimSpace(cfg.BedrockModelID) != "" {
		return true
	}
	if cfg.EmailProvider == "ses" {
		return true
	}
	return !cfg.UseMemoryQueue && strings.TrimSpace(cfg.CRMSyncQueueURL) != ""
}

func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		logger.Warn("DATABASE_URL not set; using in-memory storage")
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to reach postgres", "error", err)
		os.Exit(1)
	}
	return pool
}

// openSQLDB opens the database/sql handle the transcript store uses.
func openSQLDB(ctx context.Context, databaseURL string, logger *logging.Logger) *sql.DB {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		logger.Error("failed to open transcript database", "error", err)
		os.Exit(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("failed to reach transcript database", "error", err)
		os.Exit(1)
	}
	return db
}

func setupMetrics() (http.Handler, *metrics.TurnMetrics, prometheus.Gatherer) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	turnMetrics := metrics.NewTurnMetrics(registry)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return handler, turnMetrics, registry
}

// buildLimiter returns nil when rate limiting is disabled. Redis is preferred so limits hold
// across replicas.
func buildLimiter(cfg *appconfig.Config, redisClient *redis.Client) httpmiddleware.Limiter {
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil
	}
	if redisClient != nil {
		return httpmiddleware.NewRedisLimiter(redisClient, cfg.RateLimitBurst)
	}
	return httpmiddleware.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}

// startInlineWorker drains the in-memory CRM queue inside the API process. SQS deployments
// run cmd/crm-worker instead.
func startInlineWorker(ctx context.Context, cfg *appconfig.Config, crmSync *bootstrap.CRMSync, logger *logging.Logger) bool {
	if crmSync == nil || !crmSync.Inline {
		return false
	}
	crmSync.Worker.Start(ctx)
	logger.Info("inline crm sync worker started", "workers", cfg.WorkerCount)
	return true
}
