// Package main provides the entrypoint for the itinerary API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/api"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/api/handler"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/api/middleware"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/auth"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/database"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/loader"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/provider/resilience"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/render"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/schedule"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/telemetry"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "usa-van-rail-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting itinerary API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     os.Getenv("JWT_ISSUER"),
		Audience:   serviceName,
	})

	// Initialize itinerary service
	itineraryService := itinerary.NewService(itinerary.ServiceConfig{
		Logger:     log,
		Repository: itinerary.NewPostgresRepository(pool),
	})
	log.Info().Msg("itinerary service initialized")

	// Initialize content store client behind a circuit breaker. The
	// registry feeds provider health into the ops status endpoint.
	providers := resilience.NewRegistry()
	var contentStore *loader.Client
	if baseURL := os.Getenv("CONTENT_STORE_BASE_URL"); baseURL != "" {
		contentClient := resilience.NewClient(resilience.ClientConfig{
			Name:    loader.ProviderName,
			Timeout: 10 * time.Second,
		})
		providers.Register(loader.ProviderName, contentClient)
		contentStore = loader.NewClient(loader.ClientConfig{
			BaseURL:    baseURL,
			HTTPClient: contentClient,
		})
		log.Info().Str("base_url", baseURL).Msg("content store client initialized")
	} else {
		log.Warn().Msg("CONTENT_STORE_BASE_URL not set - import endpoint disabled")
	}

	// Initialize schedule engine and render service. Environment overrides
	// win over content store configuration.
	durations := durationsFromEnv(log)
	var icons render.IconMap
	if contentStore != nil {
		cfgCtx, cfgCancel := context.WithTimeout(ctx, 10*time.Second)
		if cfg, cfgErr := contentStore.FetchDurations(cfgCtx); cfgErr == nil {
			if durations.BaggageClaimMinutes == 0 {
				durations.BaggageClaimMinutes = cfg.BaggageClaimMinutes
			}
			if durations.HotelCheckinMinutes == 0 {
				durations.HotelCheckinMinutes = cfg.HotelCheckinMinutes
			}
		} else {
			log.Warn().Err(cfgErr).Msg("could not fetch durations config, using defaults")
		}
		if iconMap, iconErr := contentStore.FetchIconMap(cfgCtx); iconErr == nil {
			icons = render.IconMap(iconMap)
		} else {
			log.Warn().Err(iconErr).Msg("could not fetch icon map, markers will carry no icons")
		}
		cfgCancel()
	}

	engine := schedule.NewEngine(schedule.EngineConfig{
		Logger:    log,
		Durations: durations,
	})
	renderService := render.NewService(render.ServiceConfig{
		Logger: log,
		Engine: engine,
		Icons:  icons,
	})
	log.Info().Msg("render service initialized")

	// Initialize job publisher (may be nil if not configured)
	var enqueuer handler.RecomputeEnqueuer
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		topic := os.Getenv("PUBSUB_TOPIC")
		if topic == "" {
			topic = "itinerary-jobs"
		}
		publisher, pubErr := worker.NewPublisher(ctx, projectID, topic)
		if pubErr != nil {
			log.Fatal().Err(pubErr).Msg("failed to create job publisher")
		}
		defer publisher.Close()
		enqueuer = publisher
		log.Info().Str("topic", topic).Msg("job publisher initialized")
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - recompute endpoint disabled")
	}

	// A nil *loader.Client must stay a nil interface for the handler's
	// disabled-endpoint check.
	var fetcher handler.ContentFetcher
	if contentStore != nil {
		fetcher = contentStore
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          metrics,
		JWTService:       jwtService,
		EditorKeys:       editorKeysFromEnv(),
		ItineraryService: itineraryService,
		RenderService:    renderService,
		Enqueuer:         enqueuer,
		Fetcher:          fetcher,
		DB:               pool,
		Providers:        providers,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// durationsFromEnv reads the layover duration overrides. Zero values keep
// the built-in defaults.
func durationsFromEnv(log zerolog.Logger) schedule.Durations {
	var d schedule.Durations
	if v := os.Getenv("BAGGAGE_CLAIM_MINUTES"); v != "" {
		if n, err := time.ParseDuration(v + "m"); err == nil {
			d.BaggageClaimMinutes = int(n.Minutes())
		} else {
			log.Warn().Str("value", v).Msg("invalid BAGGAGE_CLAIM_MINUTES, using default")
		}
	}
	if v := os.Getenv("HOTEL_CHECKIN_MINUTES"); v != "" {
		if n, err := time.ParseDuration(v + "m"); err == nil {
			d.HotelCheckinMinutes = int(n.Minutes())
		} else {
			log.Warn().Str("value", v).Msg("invalid HOTEL_CHECKIN_MINUTES, using default")
		}
	}
	return d
}

// editorKeysFromEnv parses EDITOR_KEYS ("id1:key1,id2:key2") into a map.
func editorKeysFromEnv() map[string]string {
	raw := os.Getenv("EDITOR_KEYS")
	if raw == "" {
		return nil
	}

	keys := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		id, key, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || id == "" || key == "" {
			continue
		}
		keys[id] = key
	}
	return keys
}
