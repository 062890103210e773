package main

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/healthconnect/internal/api/router"
	"github.com/wolfman30/healthconnect/internal/backend"
	"github.com/wolfman30/healthconnect/internal/booking"
	"github.com/wolfman30/healthconnect/internal/catalog"
	"github.com/wolfman30/healthconnect/internal/communication"
	"github.com/wolfman30/healthconnect/internal/compliance"
	appconfig "github.com/wolfman30/healthconnect/internal/config"
	"github.com/wolfman30/healthconnect/internal/events"
	"github.com/wolfman30/healthconnect/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/healthconnect/internal/http/middleware"
	"github.com/wolfman30/healthconnect/internal/notify"
	"github.com/wolfman30/healthconnect/internal/observability/metrics"
	"github.com/wolfman30/healthconnect/internal/session"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

func main() {
	if err := appconfig.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting healthconnect API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"backend", cfg.BackendBaseURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	redisClient := connectRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	sessionStore, transcript := setupSessionStorage(redisClient, cfg.SessionTTL)

	tokens, err := setupTokenIssuer(cfg, logger)
	if err != nil {
		logger.Error("failed to configure session tokens", "error", err)
		os.Exit(1)
	}

	auditDB := openAuditDB(ctx, cfg.DatabaseURL, logger)
	if auditDB != nil {
		defer func() { _ = auditDB.Close() }()
	}

	var awsCfg *aws.Config
	if cfg.EmailProvider == "ses" || cfg.BookingEventsQueueURL != "" {
		loaded, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		awsCfg = &loaded
	}

	registry, metricsHandler := setupMetrics()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, logger,
		backend.WithTreatmentPath(cfg.TreatmentBookingPath))

	rooms := communication.NewRooms(communication.RoomsConfig{
		AutoReply:  cfg.ChatAutoReply,
		ReplyDelay: cfg.ChatReplyDelay,
		MeetLink:   cfg.VideoMeetLink,
		Transcript: transcript,
		Location:   loc,
		Logger:     logger,
	})

	observers := booking.Observers{
		booking.NewMetricsObserver(bookingMetrics),
		booking.NewRoomsObserver(rooms),
		booking.NewNotifyObserver(notify.NewConfirmationNotifier(setupEmailSender(cfg, awsCfg, logger), loc, logger)),
		booking.NewEventsObserver(setupPublisher(cfg, awsCfg, logger), loc, logger),
	}
	var auditor handlers.LoginAuditor
	if auditDB != nil {
		audit := compliance.NewAuditService(auditDB)
		auditor = audit
		observers = append(observers, booking.NewAuditObserver(audit, loc, logger))
	}

	manager := booking.NewManager(booking.Config{
		Backend:       backendClient,
		Prior:         backendClient,
		SubmitTimeout: cfg.SubmitTimeout,
		PollInterval:  cfg.AccessPollInterval,
		Location:      loc,
		Observer:      observers,
		Logger:        logger,
	}, bookingMetrics)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Close()

	cat := catalog.Default()
	r := router.New(&router.Config{
		Logger:       logger,
		Health:       handlers.NewHealthHandler(healthChecks(redisClient, auditDB), manager.ActiveCount),
		Auth:         handlers.NewAuthHandler(backendClient, sessionStore, auditor, logger),
		Catalog:      handlers.NewCatalogHandler(cat),
		Contact:      handlers.NewContactHandler(backendClient, logger),
		Appointments: handlers.NewAppointmentsHandler(backendClient, loc, logger),
		Bookings: handlers.NewBookingsHandler(handlers.BookingsConfig{
			Manager:  manager,
			Catalog:  cat,
			Rooms:    rooms,
			Location: loc,
			Logger:   logger,
		}),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		Session: httpmiddleware.SessionConfig{
			Store:      sessionStore,
			Tokens:     tokens,
			CookieName: cfg.SessionCookie,
			Secure:     cfg.IsProduction(),
			Logger:     logger,
		},
	})

	// WriteTimeout stays zero so chat and access sockets are not cut off.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
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
	manager.Shutdown(shutdownCtx)
	rooms.CloseAll()

	logger.Info("server stopped")
}

// setupMetrics returns a private registry and the /metrics handler that
// serves it.
func setupMetrics() (*prometheus.Registry, http.Handler) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// connectRedis returns nil when no address is configured or the server is
// unreachable; callers then fall back to in-memory storage.
func connectRedis(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set; session contexts and chat transcripts stay in memory")
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable; falling back to in-memory storage", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("connected to redis", "addr", cfg.RedisAddr)
	return client
}

func setupSessionStorage(client *redis.Client, ttl time.Duration) (session.Store, communication.Transcript) {
	if client == nil {
		return session.NewMemoryStore(), nil
	}
	return session.NewRedisStore(client, ttl), communication.NewRedisTranscript(client, ttl)
}

// setupTokenIssuer requires SESSION_SECRET in production. Elsewhere a random
// secret is generated, which invalidates sessions on restart.
func setupTokenIssuer(cfg *appconfig.Config, logger *logging.Logger) (*session.TokenIssuer, error) {
	secret := cfg.SessionSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("SESSION_SECRET is required in production")
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logger.Warn("SESSION_SECRET not set; using an ephemeral secret")
	}
	return session.NewTokenIssuer(secret, cfg.SessionTTL)
}

// openAuditDB returns nil when the audit trail is disabled or the database
// cannot be reached.
func openAuditDB(ctx context.Context, databaseURL string, logger *logging.Logger) *sql.DB {
	if databaseURL == "" {
		logger.Info("DATABASE_URL not set; audit trail disabled")
		return nil
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("failed to open audit database", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("audit database unreachable; audit trail disabled", "error", err)
		_ = db.Close()
		return nil
	}
	return db
}

// loadAWSConfig resolves the region and, when both keys are set, static
// credentials. The SES and SQS clients apply AWS_ENDPOINT_OVERRIDE
// themselves.
func loadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	keyID := strings.TrimSpace(cfg.AWSAccessKeyID)
	secret := strings.TrimSpace(cfg.AWSSecretAccessKey)
	if keyID != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(keyID, secret, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// endpointOverride points SES and SQS at LocalStack when configured.
func endpointOverride(cfg *appconfig.Config) *string {
	if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
		return aws.String(endpoint)
	}
	return nil
}

func setupEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("SENDGRID_API_KEY not set; confirmation emails are logged only")
	case "ses":
		if awsCfg != nil {
			client := sesv2.NewFromConfig(*awsCfg, func(o *sesv2.Options) {
				if ep := endpointOverride(cfg); ep != nil {
					o.BaseEndpoint = ep
				}
			})
			return notify.NewSESSender(client, notify.SESConfig{
				FromEmail: cfg.EmailFrom,
				FromName:  cfg.EmailFromName,
			}, logger)
		}
	}
	return notify.NewStubEmailSender(logger)
}

func setupPublisher(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) events.Publisher {
	if cfg.BookingEventsQueueURL == "" || awsCfg == nil {
		return events.NoopPublisher{}
	}
	client := sqs.NewFromConfig(*awsCfg, func(o *sqs.Options) {
		if ep := endpointOverride(cfg); ep != nil {
			o.BaseEndpoint = ep
		}
	})
	return events.NewSQSPublisher(client, cfg.BookingEventsQueueURL, logger)
}

func healthChecks(redisClient *redis.Client, db *sql.DB) map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if db != nil {
		checks["database"] = db.PingContext
	}
	return checks
}
