package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	emailPkg "casework/internal/adapters/email"
	web "casework/internal/adapters/http"
	"casework/internal/adapters/media"
	"casework/internal/adapters/notify"
	"casework/internal/adapters/storage"
	auditStore "casework/internal/adapters/storage/audit"
	incidentStore "casework/internal/adapters/storage/incident"
	caseStore "casework/internal/adapters/storage/injurycase"
	outboxStorePkg "casework/internal/adapters/storage/outbox"
	rehabStore "casework/internal/adapters/storage/rehabplan"
	scheduleStore "casework/internal/adapters/storage/schedule"
	teamStore "casework/internal/adapters/storage/team"
	workerStore "casework/internal/adapters/storage/worker"
	"casework/internal/application/orchestrators"
	"casework/internal/config"
	domainOutbox "casework/internal/domain/outbox"
	"casework/internal/telemetry"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "casework",
		Version:        version,
		MetricInterval: cfg.Telemetry.MetricInterval,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry_shutdown_failed", "error", err.Error())
		}
	}()

	// Initialize database with WAL mode, foreign keys, and busy timeout
	db, err := storage.Open(ctx, cfg.DSN(), cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database_ready", "path", cfg.DBPath, "schema", storage.LatestSchemaVersion())

	// Every store goes through the timed wrapper for query instrumentation
	timedDB := storage.NewTimedDB(db, telemetry.Meter("casework/storage"), cfg.SlowQuery)
	cases := caseStore.NewSQLiteStore(timedDB)
	incidents := incidentStore.NewSQLiteStore(timedDB)
	teams := teamStore.NewSQLiteStore(timedDB)
	workers := workerStore.NewSQLiteStore(timedDB)
	schedules := scheduleStore.NewSQLiteStore(timedDB)
	plans := rehabStore.NewSQLiteStore(timedDB, time.Now)
	audits := auditStore.NewSQLiteStore(timedDB)
	outboxStore := outboxStorePkg.NewSQLiteStore(timedDB)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	sink, closeSink, err := newSink(cfg, outboxStore)
	if err != nil {
		return err
	}
	defer closeSink()

	mediaStore, err := newMediaStore(ctx, cfg)
	if err != nil {
		return err
	}

	// Outbox background worker delivers queued notification emails
	executor := &orchestrators.EmailExecutor{
		Sender:  newEmailSender(cfg),
		Workers: workers,
		ReplyTo: cfg.Email.ReplyTo,
	}
	processor := orchestrators.NewOutboxProcessor(outboxStore, map[string]orchestrators.ActionExecutor{
		domainOutbox.ActionTypeNotificationEmail: executor,
	}, time.Now)
	outboxStopCh := make(chan struct{})
	orchestrators.StartBackgroundWorker(processor, cfg.Outbox.Interval, outboxStopCh)
	defer close(outboxStopCh)

	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	if csrfKey == nil && cfg.IsProduction() {
		return errors.New("CASEWORK_CSRF_KEY is required in production")
	}

	handler := web.NewMux(web.Deps{
		Cases:           cases,
		Incidents:       incidents,
		Teams:           teams,
		Schedules:       schedules,
		RehabPlans:      plans,
		Audit:           audits,
		Media:           mediaStore,
		Sink:            sink,
		Outbox:          outboxStore,
		OutboxProcessor: processor,
		Health:          db.PingContext,
		Now:             time.Now,
		GenerateID:      generateID,
		Location:        loc,
	}, web.Options{
		CSRFKey:       csrfKey,
		SecureCookies: cfg.IsProduction(),
		SlowRequest:   cfg.SlowRequest,
		Meter:         telemetry.Meter("casework/http"),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "sink", cfg.Notify.Sink, "timezone", loc.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func generateID() string {
	return uuid.New().String()
}

// newSink selects the notification sink; the returned func releases it.
func newSink(cfg config.Config, store outboxStorePkg.Store) (notify.Sink, func(), error) {
	switch cfg.Notify.Sink {
	case config.SinkKafka:
		k, err := notify.NewKafkaSink(notify.KafkaConfig{Brokers: cfg.Notify.Brokers, Topic: cfg.Notify.Topic})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := k.Close(); err != nil {
				slog.Warn("kafka_close_failed", "error", err.Error())
			}
		}
		return k, closeFn, nil
	default:
		return notify.NewOutboxSink(store, time.Now, generateID), func() {}, nil
	}
}

func newMediaStore(ctx context.Context, cfg config.Config) (media.Store, error) {
	if cfg.Media.Bucket == "" {
		slog.Info("media_disabled", "hint", "set CASEWORK_S3_BUCKET to store incident photos")
		return media.Disabled{}, nil
	}
	s, err := media.NewS3Store(ctx, media.S3Config{
		Bucket:   cfg.Media.Bucket,
		Region:   cfg.Media.Region,
		Endpoint: cfg.Media.Endpoint,
		Prefix:   cfg.Media.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}
	return s, nil
}

func newEmailSender(cfg config.Config) emailPkg.Sender {
	if cfg.Email.ResendKey != "" {
		slog.Info("email_sender_configured", "provider", "resend")
		return emailPkg.NewResendSender(cfg.Email.ResendKey, cfg.Email.From)
	}
	if cfg.IsProduction() {
		slog.Warn("email_delivery_disabled", "hint", "CASEWORK_RESEND_KEY is not set")
	} else {
		slog.Info("email_sender_configured", "provider", "noop")
	}
	return emailPkg.NewNoopSender()
}
