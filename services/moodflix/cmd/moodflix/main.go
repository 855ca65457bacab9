package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"moodflix/internal/ratelimit"
	"moodflix/internal/resilience"
	"moodflix/internal/util"
	"moodflix/internal/validation"
	"moodflix/pkg/ai"
	"moodflix/pkg/catalog"
	"moodflix/pkg/mailer"
	"moodflix/pkg/mood"
	"moodflix/pkg/queue"
	"moodflix/pkg/store"
	"moodflix/services/moodflix/internal/app"
	"moodflix/services/moodflix/internal/config"
	"moodflix/services/moodflix/internal/security"
	"moodflix/services/moodflix/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger("moodflix", cfg.LogLevel)

	durations := map[string]time.Duration{}
	for name, raw := range map[string]string{
		"sessionTTL":      cfg.SessionTTL,
		"jwtLeeway":       cfg.JWTLeeway,
		"llmTimeout":      cfg.LLMTimeout,
		"tmdbTimeout":     cfg.TMDBTimeout,
		"catalogCacheTTL": cfg.CatalogCacheTTL,
	} {
		d, err := config.ParseDuration(name, raw)
		if err != nil {
			log.Fatalf("failed to parse %s: %v", name, err)
		}
		durations[name] = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("failed to reach redis: %v", err)
	}
	cancel()

	var dataStore store.Store
	if cfg.DatabaseURL == "" {
		logger.Warn("databaseURL not set, using in-memory store")
		dataStore = store.NewMemoryStore()
	}

	sessions, err := newSessionStore(cfg, rdb, durations["sessionTTL"], durations["jwtLeeway"])
	if err != nil {
		log.Fatalf("failed to init sessions: %v", err)
	}

	generator, err := newGenerator(cfg, durations["llmTimeout"])
	if err != nil {
		log.Fatalf("failed to init llm: %v", err)
	}

	tmdb, err := catalog.NewTMDBClient(catalog.Config{
		APIKey:   cfg.TMDBAPIKey,
		BaseURL:  cfg.TMDBBaseURL,
		Language: cfg.TMDBLanguage,
		Region:   cfg.TMDBRegion,
		Timeout:  durations["tmdbTimeout"],
	})
	if err != nil {
		log.Fatalf("failed to init catalog: %v", err)
	}
	movies := catalog.NewRedisCache(tmdb, rdb, durations["catalogCacheTTL"], tmdb.Language())

	resets, err := app.NewResetStore(rdb)
	if err != nil {
		log.Fatalf("failed to init reset store: %v", err)
	}

	sender := newMailSender(cfg, logger)
	var dispatcher app.MailDispatcher = app.DirectMail{Sender: sender}
	var mailQueue *queue.RedisJobQueue
	if cfg.MailQueueEnabled {
		mailQueue, err = queue.NewRedisJobQueue(rdb, queue.RedisQueueConfig{
			Stream: "moodflix:mail:outbox",
			Group:  "mailers",
		})
		if err != nil {
			log.Fatalf("failed to init mail queue: %v", err)
		}
		dispatcher = app.QueuedMail{Queue: mailQueue}
		mailQueue.Start(ctx, 1, app.MailJobHandler(sender))
	}

	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		log.Fatalf("failed to load display timezone: %v", err)
	}

	appCore, err := app.New(app.Config{
		DatabaseURL: cfg.DatabaseURL,
		Store:       dataStore,
		Sessions:    sessions,
		Catalog:     movies,
		Analyzer:    mood.NewAnalyzer(generator),
		Resets:      resets,
		Mail:        dispatcher,
		Location:    loc,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	trusted, err := util.NewTrustedProxies(config.SplitList(cfg.TrustedProxies))
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}
	var resetLimiter *ratelimit.FixedWindowLimiter
	if cfg.ResetRateLimitPerMinute > 0 {
		resetLimiter, err = ratelimit.NewFixedWindowLimiter(rdb, "moodflix:ratelimit:password-forgot", cfg.ResetRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init reset limiter: %v", err)
		}
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Validator:      validation.New(),
		Alerter:        security.NewAuditAlerter(rdb, "moodflix:alerts"),
		ResetLimiter:   resetLimiter,
		TrustedProxies: trusted,
		CORSOrigins:    config.SplitList(cfg.CORSOrigins),
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("moodflix server listening", "addr", addr, "sessions", cfg.SessionStrategy, "llm", cfg.LLMProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "err", err)
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	if mailQueue != nil {
		mailQueue.Wait()
	}
}

func newSessionStore(cfg config.FileConfig, rdb redis.UniversalClient, ttl, leeway time.Duration) (store.SessionStore, error) {
	if cfg.SessionStrategy == "jwt" {
		return store.NewJWTSessionStore(cfg.JWTSecret, ttl, store.NewRedisTokenRevoker(rdb, 0), store.JWTOptions{
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Leeway:   leeway,
		})
	}
	return store.NewRedisSessionStore(rdb, ttl), nil
}

func newGenerator(cfg config.FileConfig, timeout time.Duration) (ai.TextGenerator, error) {
	pc := ai.ProviderConfig{Provider: cfg.LLMProvider, Timeout: timeout}
	switch cfg.LLMProvider {
	case "ollama":
		pc.BaseURL, pc.Model = cfg.OllamaBaseURL, cfg.OllamaModel
	case "openai":
		pc.BaseURL, pc.Model, pc.APIKey = cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAIAPIKey
	default:
		pc.Model, pc.APIKey = cfg.GeminiModel, cfg.GeminiAPIKey
	}
	gen, err := ai.NewTextGenerator(pc)
	if err != nil {
		return nil, err
	}
	return ai.WithBreaker(gen, resilience.Settings{}), nil
}

func newMailSender(cfg config.FileConfig, logger *slog.Logger) mailer.Sender {
	if cfg.EmailUser == "" {
		logger.Warn("emailUser not set, reset codes are logged instead of mailed")
		return mailer.LogSender{Logger: logger}
	}
	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
		From:     cfg.MailFrom,
	})
	if err != nil {
		log.Fatalf("failed to init smtp sender: %v", err)
	}
	return sender
}
