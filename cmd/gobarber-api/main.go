package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mrlongitqn/gobarber/internal/availability"
	"github.com/mrlongitqn/gobarber/internal/cache"
	"github.com/mrlongitqn/gobarber/internal/consumer"
	"github.com/mrlongitqn/gobarber/internal/handlers"
	"github.com/mrlongitqn/gobarber/internal/inbox"
	"github.com/mrlongitqn/gobarber/internal/notifications"
	"github.com/mrlongitqn/gobarber/internal/outbox"
	"github.com/mrlongitqn/gobarber/internal/scheduling"
	"github.com/mrlongitqn/gobarber/internal/storage"
	"github.com/mrlongitqn/gobarber/libs/cachex"
	"github.com/mrlongitqn/gobarber/libs/config"
	"github.com/mrlongitqn/gobarber/libs/db"
	"github.com/mrlongitqn/gobarber/libs/httpx"
	"github.com/mrlongitqn/gobarber/libs/kafkax"
	otelx "github.com/mrlongitqn/gobarber/libs/otel"
	"github.com/mrlongitqn/gobarber/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "gobarber-api")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}

	var cacheStore cache.Store
	var rateLimit httpx.Middleware
	redisAddr := config.String("REDIS_ADDR", "")
	if redisAddr != "" {
		rdb, err := cachex.Open(ctx, redisAddr, config.String("REDIS_PASSWORD", ""), config.Int("REDIS_DB", 0))
		if err != nil {
			logger.Error("redis connection failed", "err", err)
			panic(err)
		}
		defer rdb.Close()
		cacheStore = cache.NewRedis(rdb)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: cachex.ReadyCheck(rdb)})
		rateLimit = httpx.NewRedisRateLimiter(rdb, config.Int("RATE_LIMIT", 120), time.Minute, service).Middleware(logger, true)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-process cache")
		cacheStore = cache.NewMemory()
		rateLimit = httpx.NewRateLimiter(config.Int("RATE_LIMIT", 120), time.Minute).Middleware()
	}

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	if kafkaBrokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}

	users := storage.NewUserRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	appointments := storage.NewAppointmentRepository(pool, outboxRepo)
	notificationsRepo := notifications.NewRepository(pool)
	inboxRepo := inbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	startConsumer := func(topic string, handler consumer.Handler) {
		if strings.TrimSpace(kafkaBrokers) == "" || strings.TrimSpace(topic) == "" {
			return
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: kafkaBrokers,
			GroupID: config.String("KAFKA_GROUP_ID", service),
			Topic:   topic,
		}, handler)
		go eventConsumer.Run(ctx)
	}
	startConsumer(outbox.EventAppointmentBooked, notifyProvider(notificationsRepo, logger, "booking_created",
		"New booking on %s"))
	startConsumer(outbox.EventAppointmentCanceled, notifyProvider(notificationsRepo, logger, "booking_canceled",
		"Booking on %s was canceled"))

	svc := scheduling.New(appointments, cacheStore, logger, scheduling.Config{
		Hours: availability.BusinessHours{
			Start: config.Int("BUSINESS_HOUR_START", 8),
			End:   config.Int("BUSINESS_HOUR_END", 17),
		},
		AllowPastBooking: config.Bool("ALLOW_PAST_BOOKING", false),
		AllowSelfBooking: config.Bool("ALLOW_SELF_BOOKING", false),
		CacheTTL:         config.Duration("AVAILABILITY_CACHE_TTL", 24*time.Hour),
	})

	cacheTTL := config.Duration("PROVIDERS_CACHE_TTL", time.Hour)
	userHandler := handlers.NewUserHandler(users, cacheStore, logger)
	sessionHandler := handlers.NewSessionHandler(users, jwtSecret, config.Duration("JWT_TTL", 24*time.Hour))
	providerHandler := handlers.NewProviderHandler(users, cacheStore, cacheTTL, logger)
	appointmentHandler := handlers.NewAppointmentHandler(svc, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationsRepo)

	authed := func(h http.HandlerFunc) http.Handler {
		return handlers.RequireAuth(h, jwtSecret)
	}

	updateUser := authed(userHandler.Update)
	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			userHandler.Register(w, r)
			return
		}
		updateUser.ServeHTTP(w, r)
	})
	mux.HandleFunc("/api/v1/sessions", sessionHandler.Create)
	mux.Handle("/api/v1/providers", authed(providerHandler.List))
	mux.Handle("/api/v1/providers/", authed(appointmentHandler.Availability))
	providerSchedule := handlers.RequireProvider(http.HandlerFunc(appointmentHandler.Schedule))
	mux.Handle("/api/v1/appointments", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			providerSchedule.ServeHTTP(w, r)
			return
		}
		appointmentHandler.Create(w, r)
	}))
	mux.Handle("/api/v1/appointments/", authed(appointmentHandler.Cancel))
	mux.Handle("/api/v1/notifications", authed(notificationHandler.List))
	mux.Handle("/api/v1/notifications/", authed(notificationHandler.MarkRead))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 30*time.Second)),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		rateLimit,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "gobarber-api")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// notifyProvider turns appointment events back into provider notifications.
func notifyProvider(repo *notifications.Repository, logger *slog.Logger, kind, contentFmt string) consumer.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			AppointmentID string `json:"appointment_id"`
			ProviderID    string `json:"provider_id"`
			ClientID      string `json:"client_id"`
			Date          string `json:"date"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.ProviderID == "" || payload.Date == "" {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}

		when := payload.Date
		if parsed, err := time.Parse(time.RFC3339, payload.Date); err == nil {
			when = parsed.UTC().Format("Jan 2, 2006 at 15:04")
		}
		_, err := repo.Insert(ctx, notifications.Notification{
			RecipientID: payload.ProviderID,
			Kind:        kind,
			Content:     fmt.Sprintf(contentFmt, when),
		})
		return err
	}
}
