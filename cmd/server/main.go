package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/adminbase/internal/handler"
	"github.com/yourorg/adminbase/internal/infrastructure/logger"
	"github.com/yourorg/adminbase/internal/infrastructure/redis"
	"github.com/yourorg/adminbase/internal/notification"
	"github.com/yourorg/adminbase/internal/observability/metrics"
	"github.com/yourorg/adminbase/internal/observability/tracing"
	"github.com/yourorg/adminbase/internal/repository"
	"github.com/yourorg/adminbase/internal/security/audit"
	"github.com/yourorg/adminbase/internal/security/auth"
	"github.com/yourorg/adminbase/internal/security/middleware"
	"github.com/yourorg/adminbase/internal/service"
	"github.com/yourorg/adminbase/internal/session"
	"github.com/yourorg/adminbase/pkg/config"
	"github.com/yourorg/adminbase/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting adminbase server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, "adminbase", cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Open the three stores. They are fully independent: no transaction
	// or foreign key ever spans them.
	primaryPool, err := database.NewConnectionPool(ctx, "primary", cfg.PrimaryDatabaseURL, database.Options{}, log)
	if err != nil {
		log.Error("failed to connect to primary store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer primaryPool.Close()

	analyticsPool, err := database.NewConnectionPool(ctx, "analytics", cfg.AnalyticsDatabaseURL, database.Options{}, log)
	if err != nil {
		log.Error("failed to connect to analytics store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer analyticsPool.Close()

	opsPool, err := database.NewConnectionPool(ctx, "ops", cfg.OpsDatabaseURL, database.Options{}, log)
	if err != nil {
		log.Error("failed to connect to ops store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer opsPool.Close()

	// 5. Initialize Redis for server-side sessions
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 6. Initialize repositories
	userRepo := repository.NewPostgresUserRepository(primaryPool.GetDB(), log)
	settingRepo := repository.NewPostgresSettingRepository(primaryPool.GetDB(), log)
	analyticsRepo := repository.NewPostgresAnalyticsRepository(analyticsPool.GetDB(), cfg.DefaultPageLimit, log)
	telemetryRepo := repository.NewPostgresTelemetryRepository(opsPool.GetDB(), cfg.DefaultPageLimit, log)

	// 7. Initialize services and security components
	tokenTTL := time.Duration(cfg.TokenTTLMinutes) * time.Minute
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "adminbase", tokenTTL)

	var sender notification.Sender
	if cfg.SMTPUsername != "" {
		sender = notification.NewSMTPSender(cfg, log)
	} else {
		sender = notification.NewNopSender(log)
	}

	userService := service.NewUserService(userRepo, sender, time.Duration(cfg.ActivationTTLHours)*time.Hour, log)
	authService := service.NewAuthService(userRepo, tokenManager, log)
	telemetryService := service.NewTelemetryService(userRepo, analyticsRepo, telemetryRepo, log)

	// Session staleness is bounded by the redis TTL, which matches the
	// token lifetime.
	sessions := session.NewStore(redisClient, tokenTTL, cfg.Environment == "production", log)
	resolver := auth.NewResolver(sessions, tokenManager, userRepo, log)
	auditRecorder := audit.NewRecorder(log, telemetryService)
	loginLimiter := middleware.NewLoginRateLimiter(cfg.LoginRateLimitPerMin)

	// 8. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, userService, sessions, auditRecorder, tokenTTL, log)
	usersHandler := handler.NewUsersHandler(userService, auditRecorder, log)
	settingsHandler := handler.NewSettingsHandler(settingRepo, auditRecorder, log)
	telemetryHandler := handler.NewTelemetryHandler(telemetryService, log)
	healthHandler := handler.NewHealthHandler(
		[]*database.ConnectionPool{primaryPool, analyticsPool, opsPool},
		redisClient,
		log,
	)

	// 9. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/auth/register", loginLimiter.Wrap(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", loginLimiter.Wrap(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/activate/{token}", authHandler.Activate)
	mux.HandleFunc("GET /api/auth/me", authHandler.Me)

	mux.HandleFunc("GET /api/users", usersHandler.List)
	mux.HandleFunc("POST /api/users", usersHandler.Create)
	mux.HandleFunc("GET /api/users/{id}", usersHandler.Get)
	mux.HandleFunc("PUT /api/users/{id}", usersHandler.Update)
	mux.HandleFunc("DELETE /api/users/{id}", usersHandler.Delete)

	mux.HandleFunc("GET /api/settings", settingsHandler.List)
	mux.HandleFunc("POST /api/settings", settingsHandler.Create)
	mux.HandleFunc("GET /api/settings/{name}", settingsHandler.Get)
	mux.HandleFunc("PUT /api/settings/{name}", settingsHandler.Update)
	mux.HandleFunc("DELETE /api/settings/{name}", settingsHandler.Delete)

	mux.HandleFunc("POST /api/telemetry/analytics", telemetryHandler.CreateAnalyticsEvent)
	mux.HandleFunc("GET /api/telemetry/analytics", telemetryHandler.ListAnalyticsEvents)
	mux.HandleFunc("POST /api/telemetry/logs", telemetryHandler.CreateUserLog)
	mux.HandleFunc("GET /api/telemetry/logs", telemetryHandler.ListUserLogs)
	mux.HandleFunc("POST /api/telemetry/events", telemetryHandler.CreateSystemEvent)
	mux.HandleFunc("GET /api/telemetry/events", telemetryHandler.ListSystemEvents)
	mux.HandleFunc("POST /api/telemetry/metrics", telemetryHandler.CreateMetric)
	mux.HandleFunc("GET /api/telemetry/metrics", telemetryHandler.ListMetrics)

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// Chain middleware: request ID -> CORS -> content type -> identity ->
	// metrics. Metrics sit innermost so the matched route pattern is
	// available for labeling.
	rootHandler := withRequestID(
		middleware.CORSMiddleware(cfg.CORSAllowedOrigins)(
			middleware.ValidateJSONContentType(log)(
				middleware.IdentityMiddleware(resolver, log)(
					metrics.HTTPMetricsMiddleware(mux),
				),
			),
		),
		log,
	)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "adminbase.http"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "session+jwt"),
		slog.Int("token_ttl_minutes", cfg.TokenTTLMinutes),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
