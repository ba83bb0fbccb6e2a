// cmd/assistant-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lua-assistant/internal/assistant"
	"lua-assistant/internal/assistant/dispatch"
	"lua-assistant/internal/assistant/persona"
	"lua-assistant/internal/common/config"
	"lua-assistant/internal/common/database"
	"lua-assistant/internal/common/logger"
	"lua-assistant/internal/common/observability"
	"lua-assistant/internal/llm"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/notify"
	"lua-assistant/internal/search"
	"lua-assistant/internal/server"
	"lua-assistant/internal/store"
	"lua-assistant/internal/tts"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting LUA assistant server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry (speech cache) ---
	var redis *database.RedisClient
	if cfg.TTS.CacheEnabled {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Init Elasticsearch with retry (jewelry catalog search) ---
	var catalog dispatch.CatalogSearcher
	if cfg.Search.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		catalog = search.NewCatalog(esClient, cfg.Database.Elasticsearch, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init notification channels ---
	var notifier dispatch.Notifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		svc, err := notify.New(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("notification service failed", zap.Error(err))
		}
		notifier = svc
		zapLog.Info("Notification channels initialized")
	}

	// --- Assemble the assistant ---
	dispatcher := dispatch.New(dispatch.Deps{
		Store:        store.NewPostgres(pg.DB, log),
		Logger:       log,
		Catalog:      catalog,
		Notifier:     notifier,
		DisplayLimit: cfg.Assistant.DisplayLimit,
	})

	personaOpts := persona.Options{Logger: log}
	if cfg.Assistant.PersistPersonality {
		personaOpts.StatePath = cfg.Assistant.PersonalityPath
	}
	personaEngine := persona.New(personaOpts)

	var synth tts.Synthesizer
	if cfg.Assistant.VoiceEnabled {
		synth = tts.NewClient(cfg.TTS, redis, log)
		zapLog.Info("Speech synthesis enabled", zap.String("voice", cfg.TTS.Voice))
	}

	var completer llm.Completer
	if cfg.LLM.Enabled {
		completer = llm.NewClient(cfg.LLM, log)
		zapLog.Info("Language model fallback enabled", zap.String("model", cfg.LLM.Model))
	}

	lua := assistant.New(assistant.Deps{
		Config:      cfg.Assistant,
		Interpreter: interpret.New(),
		Dispatcher:  dispatcher,
		Persona:     personaEngine,
		Synthesizer: synth,
		Completer:   completer,
		Metrics:     obs,
		Logger:      log,
	})

	// --- Metrics Server ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, nil); err != nil {
			zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// --- API Server ---
	api := &http.Server{
		Addr:    cfg.Server.ListenAddress,
		Handler: server.New(lua, log, config.GetDuration(cfg.Server.RequestTimeout)).Routes(),
	}
	go func() {
		zapLog.Info("API server listening", zap.String("address", cfg.Server.ListenAddress))
		if err := api.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := api.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down API server", zap.Error(err))
	}

	if cfg.Assistant.PersistPersonality {
		if err := personaEngine.Save(); err != nil {
			zapLog.Error("Error saving personality state", zap.Error(err))
		}
	}

	zapLog.Info("LUA assistant server stopped gracefully")
}
