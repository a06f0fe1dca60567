package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bdafahim/OmniAssist/internal/api/router"
	"github.com/bdafahim/OmniAssist/internal/channels/audiostream"
	"github.com/bdafahim/OmniAssist/internal/channels/sms"
	"github.com/bdafahim/OmniAssist/internal/channels/voice"
	appconfig "github.com/bdafahim/OmniAssist/internal/config"
	"github.com/bdafahim/OmniAssist/internal/dialogue"
	"github.com/bdafahim/OmniAssist/internal/knowledge"
	"github.com/bdafahim/OmniAssist/internal/observability/metrics"
	"github.com/bdafahim/OmniAssist/internal/session"
	"github.com/bdafahim/OmniAssist/internal/speech"
	"github.com/bdafahim/OmniAssist/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting omniassist API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"business_type", cfg.BusinessType,
	)

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.SessionBackend == "redis" || cfg.KnowledgeBackend == "redis" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
	}

	// Session store
	var sessions session.Store
	switch cfg.SessionBackend {
	case "redis":
		sessions = session.NewRedisStore(redisClient, cfg.SessionTTL)
		logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	default:
		sessions = session.NewMemoryStore()
		logger.Info("using in-memory session store")
	}

	// Optional Postgres archive for ended conversations
	var db *sql.DB
	var archive *session.Archive
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		archive = session.NewArchive(db)
		sessions = session.NewArchivingStore(sessions, archive, logger)
		logger.Info("conversation archiving enabled")
	}

	// Knowledge base
	var persister knowledge.Persister
	switch cfg.KnowledgeBackend {
	case "redis":
		persister = knowledge.NewRedisPersister(redisClient, cfg.BusinessType)
	case "file":
		persister = knowledge.NewFilePersister(cfg.KnowledgeFile)
	}
	knowledgeStore := knowledge.NewStore(ctx, cfg.BusinessType, persister, logger)

	// Optional generative fallback for unmatched questions
	var resolver dialogue.UnknownResolver
	if cfg.GeminiAPIKey != "" {
		gr, err := dialogue.NewGeminiResolver(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID, cfg.BusinessType)
		if err != nil {
			logger.Error("failed to initialize gemini resolver", "error", err)
			os.Exit(1)
		}
		defer gr.Close()
		resolver = gr
		logger.Info("gemini unknown-topic resolver enabled", "model", cfg.GeminiModelID)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dialogueMetrics := metrics.NewDialogueMetrics(registry)

	engine := dialogue.NewEngine(sessions, knowledgeStore, dialogue.NewComposer(cfg.BusinessType), resolver, dialogueMetrics, logger)

	transcriber := speech.NewStubTranscriber(cfg.WhisperModel, logger)
	synthesizer := speech.NewStubSynthesizer(cfg.TTSVoice)

	r := router.New(&router.Config{
		Logger:             logger,
		APIPrefix:          cfg.APIPrefix,
		BusinessType:       cfg.BusinessType,
		SMSHandler:         sms.NewHandler(engine, cfg.BusinessType, cfg.TwilioAuthToken, logger),
		VoiceHandler:       voice.NewHandler(engine, cfg.BusinessType, cfg.APIPrefix, logger),
		KnowledgeHandler:   knowledge.NewHandler(knowledgeStore, dialogue.ClassifyKey, dialogueMetrics, logger),
		AudioStreamHandler: audiostream.NewHandler(engine, transcriber, synthesizer, cfg.BusinessType, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Archive:            archive,
		CORSAllowedOrigins: []string{"*"},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
