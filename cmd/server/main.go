package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/property-assistant/internal/api"
	"github.com/Rrens/property-assistant/internal/api/handler"
	"github.com/Rrens/property-assistant/internal/config"
	"github.com/Rrens/property-assistant/internal/logger"
	"github.com/Rrens/property-assistant/internal/notify"
	"github.com/Rrens/property-assistant/internal/ratelimit"
	"github.com/Rrens/property-assistant/internal/repository/redis"
	"github.com/Rrens/property-assistant/internal/security"
	"github.com/Rrens/property-assistant/internal/service"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCloser, err := logger.Setup(cfg.Logging, os.Getenv("ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Driver).
		Msg("Starting property assistant server")

	ctx := context.Background()

	repos, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer repos.close()

	ready := map[string]handler.Pinger{"store": repos.sessions}

	// Redis backs the shared rate counter and the property cache. Without it the
	// counter is per process and nothing is cached.
	var counter ratelimit.Counter
	var propertyCache service.PropertyCache
	var flusher handler.CacheFlusher
	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-process rate counter and no property cache")
		counter = ratelimit.NewMemoryCounter()
	} else {
		defer redisClient.Close()
		counter = redis.NewRateCounter(redisClient)
		cache := redis.NewPropertyCache(redisClient, cfg.Chat.PropertyTTL)
		propertyCache, flusher = cache, cache
		ready["redis"] = redisClient
	}

	events, closeNotifiers := newEventDispatcher(ctx, cfg.Notify)
	defer closeNotifiers()

	llmRouter := newLLMRouter(cfg.LLM)

	dispatcher := service.NewDispatcher(repos.sessions, repos.leads, repos.scheduling, events)
	chatService := service.NewChatService(
		ratelimit.NewLimiter(counter),
		cfg.RateLimit,
		repos.sessions,
		repos.messages,
		repos.properties,
		propertyCache,
		dispatcher,
		llmRouter,
		cfg.Chat,
	)
	sessionService := service.NewSessionService(repos.sessions, repos.messages, repos.properties, propertyCache)

	var jwtManager *security.JWTManager
	if cfg.Auth.JWTSecret != "" {
		jwtManager = security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	} else {
		log.Warn().Msg("JWT_SECRET not set, operator API disabled")
	}

	router := api.NewRouter(cfg, api.Dependencies{
		Chat:       chatService,
		Sessions:   sessionService,
		LLMRouter:  llmRouter,
		JWTManager: jwtManager,
		Ready:      ready,
		Cache:      flusher,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// In-flight notifications are time-boxed, so this returns within notify.timeout
	events.Wait()

	log.Info().Msg("Server stopped")
}

func newEventDispatcher(ctx context.Context, cfg config.NotifyConfig) (*notify.Dispatcher, func()) {
	var notifiers []notify.Notifier
	closeFn := func() {}

	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.WebhookURL))
	}

	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		mongoNotifier, err := notify.NewMongoNotifier(connectCtx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("MongoDB outbox unavailable, lead events will not be recorded there")
		} else {
			notifiers = append(notifiers, mongoNotifier)
			closeFn = func() {
				if err := mongoNotifier.Close(); err != nil {
					log.Warn().Err(err).Msg("failed to close MongoDB outbox")
				}
			}
		}
	}

	log.Info().Int("notifiers", len(notifiers)).Msg("Lead notifications configured")
	return notify.NewDispatcher(cfg.Timeout, notifiers...), closeFn
}
