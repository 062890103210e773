package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/wolfman30/healthconnect/internal/config"
	"github.com/wolfman30/healthconnect/internal/events"
	"github.com/wolfman30/healthconnect/internal/notify"
	"github.com/wolfman30/healthconnect/internal/observability/metrics"
	"github.com/wolfman30/healthconnect/internal/session"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

func quietLogger() *logging.Logger {
	return logging.NewWithWriter("error", &bytes.Buffer{})
}

func TestSetupMetricsExposesBookingMetrics(t *testing.T) {
	registry, handler := setupMetrics()
	if registry == nil || handler == nil {
		t.Fatalf("expected non-nil registry and handler")
	}

	m := metrics.NewBookingMetrics(registry)
	m.ObserveSubmission("doctor", "confirmed", 0.2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "healthconnect_booking_submissions_total") {
		t.Fatalf("expected submissions counter to be exported")
	}
}

func TestOpenAuditDBEmptyURLReturnsNil(t *testing.T) {
	if db := openAuditDB(context.Background(), "", quietLogger()); db != nil {
		t.Fatalf("expected nil db for empty URL")
	}
}

func TestConnectRedisFallsBackToMemory(t *testing.T) {
	client := connectRedis(context.Background(), &appconfig.Config{}, quietLogger())
	if client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}

	store, transcript := setupSessionStorage(nil, time.Hour)
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if transcript != nil {
		t.Fatalf("expected no transcript without redis")
	}
}

func TestConnectRedisUsesServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := connectRedis(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, quietLogger())
	if client == nil {
		t.Fatalf("expected redis client")
	}
	t.Cleanup(func() { _ = client.Close() })

	store, transcript := setupSessionStorage(client, time.Hour)
	if _, ok := store.(*session.RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", store)
	}
	if transcript == nil {
		t.Fatalf("expected redis transcript")
	}

	checks := healthChecks(client, nil)
	if err := checks["redis"](context.Background()); err != nil {
		t.Fatalf("redis health check failed: %v", err)
	}
}

func TestSetupTokenIssuer(t *testing.T) {
	if _, err := setupTokenIssuer(&appconfig.Config{Env: "production", SessionTTL: time.Hour}, quietLogger()); err == nil {
		t.Fatalf("expected production to require SESSION_SECRET")
	}

	issuer, err := setupTokenIssuer(&appconfig.Config{Env: "development", SessionTTL: time.Hour}, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err := issuer.Issue("session-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if id, err := issuer.Parse(token); err != nil || id != "session-1" {
		t.Fatalf("expected session-1, got %q (%v)", id, err)
	}
}

func TestSetupEmailSenderFallsBackToStub(t *testing.T) {
	cases := []*appconfig.Config{
		{EmailProvider: "stub"},
		{EmailProvider: "sendgrid"},
		{EmailProvider: "ses"},
	}
	for _, cfg := range cases {
		if _, ok := setupEmailSender(cfg, nil, quietLogger()).(*notify.StubEmailSender); !ok {
			t.Fatalf("expected stub sender for provider %q", cfg.EmailProvider)
		}
	}

	sender := setupEmailSender(&appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "SG.test"}, nil, quietLogger())
	if _, ok := sender.(*notify.SendGridSender); !ok {
		t.Fatalf("expected sendgrid sender, got %T", sender)
	}
}

func TestSetupPublisherWithoutQueueIsNoop(t *testing.T) {
	if _, ok := setupPublisher(&appconfig.Config{}, nil, quietLogger()).(events.NoopPublisher); !ok {
		t.Fatalf("expected noop publisher without a queue URL")
	}
}

func TestLoadAWSConfigUsesStaticCredentials(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		AWSRegion:          "ap-south-1",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "secret",
	}

	awsCfg, err := loadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("load aws config: %v", err)
	}
	if awsCfg.Region != "ap-south-1" {
		t.Fatalf("expected region ap-south-1, got %q", awsCfg.Region)
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "test" {
		t.Fatalf("expected static access key, got %q", creds.AccessKeyID)
	}

	if ep := endpointOverride(cfg); ep != nil {
		t.Fatalf("expected no endpoint override, got %q", *ep)
	}
	cfg.AWSEndpointOverride = " http://localhost:4566 "
	if ep := endpointOverride(cfg); ep == nil || *ep != "http://localhost:4566" {
		t.Fatalf("expected LocalStack endpoint, got %v", ep)
	}

	cfg.BookingEventsQueueURL = "http://localhost:4566/000000000000/booking-events"
	if _, ok := setupPublisher(cfg, &awsCfg, quietLogger()).(*events.SQSPublisher); !ok {
		t.Fatalf("expected SQS publisher when a queue URL is set")
	}
	cfg.EmailProvider = "ses"
	if _, ok := setupEmailSender(cfg, &awsCfg, quietLogger()).(*notify.SESSender); !ok {
		t.Fatalf("expected SES sender")
	}
}
