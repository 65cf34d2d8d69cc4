package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"masgolf/internal/adapters/ai"
	"masgolf/internal/adapters/email"
	web "masgolf/internal/adapters/http"
	"masgolf/internal/adapters/http/middleware"
	"masgolf/internal/adapters/http/perf"
	"masgolf/internal/adapters/imagegen"
	"masgolf/internal/adapters/metrics"
	"masgolf/internal/adapters/slack"
	"masgolf/internal/adapters/solapi"
	"masgolf/internal/adapters/storage"
	accountStore "masgolf/internal/adapters/storage/account"
	blogStore "masgolf/internal/adapters/storage/blog"
	bookingStore "masgolf/internal/adapters/storage/booking"
	calendarStore "masgolf/internal/adapters/storage/calendar"
	channelSMSStore "masgolf/internal/adapters/storage/channelsms"
	contactStore "masgolf/internal/adapters/storage/contact"
	customerStore "masgolf/internal/adapters/storage/customer"
	imageMetaStore "masgolf/internal/adapters/storage/imagemeta"
	outboxStore "masgolf/internal/adapters/storage/outbox"
	quizStore "masgolf/internal/adapters/storage/quiz"
	scheduleStore "masgolf/internal/adapters/storage/schedule"
	"masgolf/internal/adapters/supabase"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/config"
	"masgolf/internal/domain/calendar"
	"masgolf/internal/domain/outbox"
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
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	db, dialect, err := storage.Open(ctx, storage.OpenOptions{
		Driver:       cfg.DB.Driver,
		DSN:          cfg.DB.DSN,
		MaxOpenConns: cfg.DB.MaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.Migrate(ctx, db, dialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Query instrumentation feeds the perf ring, the slow query log and Prometheus.
	m := metrics.New()
	collector := perf.NewCollector(perf.DefaultRingSize)
	timed := storage.NewTimedDB(db, collector, cfg.DB.SlowQueryMS).WithObserver(m)

	stores := &web.Stores{
		AccountStore:    accountStore.NewSQLStore(timed, dialect),
		BookingStore:    bookingStore.NewSQLStore(timed, dialect),
		ContactStore:    contactStore.NewSQLStore(timed, dialect),
		CustomerStore:   customerStore.NewSQLStore(timed, dialect),
		QuizStore:       quizStore.NewSQLStore(timed, dialect),
		ScheduleStore:   scheduleStore.NewSQLStore(timed, dialect),
		OutboxStore:     outboxStore.NewSQLStore(timed, dialect),
		BlogStore:       blogStore.NewSQLStore(timed, dialect),
		CalendarStore:   calendarStore.NewSQLStore(timed, dialect),
		ChannelSMSStore: channelSMSStore.NewSQLStore(timed, dialect),
		ImageMetaStore:  imageMetaStore.NewSQLStore(timed, dialect),
	}

	if cfg.Auth.SeedAdminPhone != "" && cfg.Auth.SeedAdminPassword != "" {
		created, err := orchestrators.ExecuteSeedAdmin(ctx, "", cfg.Auth.SeedAdminPhone, cfg.Auth.SeedAdminPassword,
			orchestrators.UserDeps{AccountStore: stores.AccountStore})
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			slog.Info("seed_admin_created", "phone", cfg.Auth.SeedAdminPhone)
		}
	}

	// Outbox delivery: Slack always (an empty webhook only logs), email through
	// the configured provider.
	sender := email.New(cfg.Email.Provider, cfg.Email.ResendKey, cfg.Email.From, email.SMTPConfig{
		Host:     cfg.Email.SMTP.Host,
		Port:     cfg.Email.SMTP.Port,
		Username: cfg.Email.SMTP.Username,
		Password: cfg.Email.SMTP.Password,
	})
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionSlack: &orchestrators.SlackExecutor{Poster: slack.NewClient(cfg.Slack.WebhookURL, nil)},
		outbox.ActionEmail: &orchestrators.EmailExecutor{Sender: sender},
	}, m)
	outboxStop := make(chan struct{})
	outboxDone := orchestrators.StartBackgroundWorker(processor, cfg.Outbox.Interval, outboxStop)

	svc, err := newServices(ctx, cfg, loc)
	if err != nil {
		return err
	}
	svc.Outbox = processor
	svc.Metrics = m
	svc.Perf = collector

	sessionSecret, err := secretOrRandom(cfg.Auth.SessionSecret, "auth.session_secret")
	if err != nil {
		return err
	}
	csrfKey, err := secretOrRandom(cfg.HTTP.CSRFKey, "http.csrf_key")
	if err != nil {
		return err
	}

	handler, stopMux := web.NewMux(stores, svc, web.Options{
		Sessions:           middleware.NewSessionManager(sessionSecret, cfg.Auth.SessionTTL, cfg.IsProduction()),
		CSRFKey:            csrfKey,
		SecureCookies:      cfg.IsProduction(),
		RateLimitPerSecond: cfg.HTTP.RateLimitPerSecond,
		SlowRequest:        cfg.SlowRequest(),
		NotifyTo:           cfg.Email.NotifyTo,
		Location:           loc,
	})
	defer stopMux()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.HTTP.Addr, "env", cfg.Env,
			"driver", string(dialect), "schema", storage.LatestSchemaVersion())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		close(outboxStop)
		<-outboxDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err.Error())
	}
	close(outboxStop)
	<-outboxDone
	return nil
}

// newServices builds the optional integrations. Each one missing its
// credentials stays nil and its endpoints answer 503.
func newServices(ctx context.Context, cfg config.Config, loc *time.Location) (*web.Services, error) {
	svc := &web.Services{}

	plan, err := calendar.LoadPlan()
	if err != nil {
		return nil, fmt.Errorf("load annual plan: %w", err)
	}
	svc.Plan = plan

	if cfg.AI.GeminiAPIKey != "" {
		g, err := ai.NewGemini(ctx, ai.Options{
			APIKey:      cfg.AI.GeminiAPIKey,
			TextModel:   cfg.AI.TextModel,
			VisionModel: cfg.AI.VisionModel,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		svc.Writer = g
		svc.Describer = g
	} else {
		slog.Warn("integration_disabled", "integration", "gemini")
	}

	if cfg.ImageGen.Token != "" {
		svc.ImageGen = imagegen.NewClient(imagegen.Options{
			BaseURL:      cfg.ImageGen.BaseURL,
			Token:        cfg.ImageGen.Token,
			Model:        cfg.ImageGen.Model,
			PollInterval: cfg.ImageGen.PollInterval,
			MaxPolls:     cfg.ImageGen.MaxPolls,
		})
		svc.ImageProvider = cfg.ImageGen.Model
		downloader := &http.Client{Timeout: 60 * time.Second}
		svc.Download = func(ctx context.Context, url string) ([]byte, string, error) {
			return imagegen.Download(ctx, downloader, url)
		}
	} else {
		slog.Warn("integration_disabled", "integration", "imagegen")
	}

	if cfg.Supabase.URL != "" && cfg.Supabase.ServiceRoleKey != "" {
		svc.Uploader = supabase.NewStorageClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, cfg.Supabase.Bucket, nil)
	} else {
		slog.Warn("integration_disabled", "integration", "supabase_storage")
	}

	if cfg.Solapi.Username != "" && cfg.Solapi.Password != "" {
		svc.Scraper = solapi.NewConsole(solapi.Config{
			BaseURL:  cfg.Solapi.BaseURL,
			Username: cfg.Solapi.Username,
			Password: cfg.Solapi.Password,
			Headless: cfg.Solapi.Headless,
			DebugDir: cfg.Solapi.DebugDir,
			Location: loc,
		})
	} else {
		slog.Warn("integration_disabled", "integration", "solapi_console")
	}
	return svc, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// secretOrRandom returns the configured secret, or 32 random bytes in
// development. Config validation already refuses empty production secrets.
func secretOrRandom(configured, key string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate %s: %w", key, err)
	}
	slog.Warn("secret_generated", "key", key, "note", "sessions do not survive a restart")
	return b, nil
}
