package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/planora-hq/planora/internal/consumer"
	"github.com/planora-hq/planora/internal/handlers"
	"github.com/planora-hq/planora/internal/inbox"
	"github.com/planora-hq/planora/internal/model"
	"github.com/planora-hq/planora/internal/outbox"
	"github.com/planora-hq/planora/internal/storage"
	"github.com/planora-hq/planora/libs/config"
	"github.com/planora-hq/planora/libs/db"
	"github.com/planora-hq/planora/libs/httpx"
	"github.com/planora-hq/planora/libs/kafkax"
	otelx "github.com/planora-hq/planora/libs/otel"
	"github.com/planora-hq/planora/libs/runtime"
)

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	service := config.String("SERVICE_NAME", "calendar-service")
	port, err := config.Port("PORT", "8084")
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

	loc := time.Local
	if name := config.String("CALENDAR_TZ", ""); name != "" {
		l, err := time.LoadLocation(name)
		if err != nil {
			logger.Error("invalid CALENDAR_TZ; falling back to local", "value", name, "err", err)
		} else {
			loc = l
		}
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	calendarRepo := storage.NewCalendarRepository(pool, outboxRepo)
	directoryRepo := storage.NewDirectoryRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		Retention: config.Duration("OUTBOX_RETENTION", 7*24*time.Hour),
	})
	go outboxPublisher.Run(ctx)

	inboxRepo := inbox.NewRepository(pool)
	startConsumer := func(topic string, handler consumer.Handler) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "calendar-service"),
			Topic:   topic,
		}, handler)
		go eventConsumer.Run(ctx)
	}

	startConsumer(config.String("KAFKA_STAFF_TOPIC", "directory.staff.updated.v1"),
		func(ctx context.Context, msg kafka.Message) error {
			var payload struct {
				StaffID   string `json:"staff_id"`
				Name      string `json:"name"`
				IsWorking bool   `json:"is_working"`
			}
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
				return nil
			}
			if payload.StaffID == "" || payload.Name == "" {
				logger.Error("missing required event fields", "topic", msg.Topic)
				return nil
			}
			return directoryRepo.UpsertStaff(ctx, model.Staff{
				ID:        payload.StaffID,
				Name:      payload.Name,
				IsWorking: payload.IsWorking,
			})
		})
	startConsumer(config.String("KAFKA_SERVICE_TOPIC", "directory.service.updated.v1"),
		func(ctx context.Context, msg kafka.Message) error {
			var payload struct {
				ServiceID       string `json:"service_id"`
				Name            string `json:"name"`
				DurationMinutes int    `json:"duration_minutes"`
				Price           string `json:"price"`
			}
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
				return nil
			}
			if payload.ServiceID == "" || payload.Name == "" || payload.DurationMinutes <= 0 {
				logger.Error("missing required event fields", "topic", msg.Topic)
				return nil
			}
			return directoryRepo.UpsertService(ctx, model.Service{
				ID:              payload.ServiceID,
				Name:            payload.Name,
				DurationMinutes: payload.DurationMinutes,
				Price:           payload.Price,
			})
		})

	calendarHandler := handlers.NewCalendarHandler(calendarRepo, directoryRepo, logger, loc)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/appointments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			calendarHandler.Book(w, r)
			return
		}
		calendarHandler.List(w, r)
	})
	mux.HandleFunc("/api/v1/appointments/reschedule", calendarHandler.Reschedule)
	mux.HandleFunc("/api/v1/staff", calendarHandler.Staff)
	mux.HandleFunc("/api/v1/services", calendarHandler.Services)
	mux.HandleFunc("/api/v1/calendar.ics", calendarHandler.Feed)

	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 300)
	var limit httpx.Middleware
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		limit = httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service).Middleware(logger, true)
	} else {
		limit = httpx.NewRateLimiter(rateLimit, time.Minute).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 15*time.Second)),
		limit,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "calendar")
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
