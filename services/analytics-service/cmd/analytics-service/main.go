package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dreyes/barberflow/libs/config"
	"github.com/dreyes/barberflow/libs/db"
	"github.com/dreyes/barberflow/libs/httpx"
	"github.com/dreyes/barberflow/libs/inbox"
	"github.com/dreyes/barberflow/libs/kafkax"
	otelx "github.com/dreyes/barberflow/libs/otel"
	"github.com/dreyes/barberflow/libs/runtime"
	"github.com/dreyes/barberflow/services/analytics-service/internal/handlers"
	"github.com/dreyes/barberflow/services/analytics-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "analytics-service")
	port, err := config.Port("PORT", "8086")
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

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	metricsRepo := storage.NewRepository(pool)

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "analytics-service")

	handleBookingEvent := func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			BookingID string `json:"booking_id"`
			BarberID  string `json:"barber_id"`
			StartTime string `json:"start_time"`
			Price     string `json:"price"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booking payload", "err", err)
			return nil
		}
		if payload.BookingID == "" || payload.StartTime == "" {
			logger.Error("missing booking fields", "topic", msg.Topic)
			return nil
		}
		startTime, err := time.Parse(time.RFC3339, payload.StartTime)
		if err != nil {
			logger.Error("invalid start_time", "err", err)
			return nil
		}

		meta := kafkax.ExtractEventMeta(msg)

		var revenueCents int64
		if meta.EventType == "booking.completed.v1" && payload.Price != "" {
			revenueCents, err = priceCents(payload.Price)
			if err != nil {
				logger.Error("invalid price, counting completion without revenue", "price", payload.Price)
				revenueCents = 0
			}
		}

		if err := metricsRepo.ApplyBookingEvent(ctx, storage.BookingEvent{
			EventID:      meta.EventID,
			EventType:    meta.EventType,
			BookingID:    payload.BookingID,
			BarberID:     payload.BarberID,
			OccurredAt:   startTime,
			RevenueCents: revenueCents,
		}); err != nil {
			logger.Error("failed to record booking metric", "err", err)
			return err
		}

		logger.Info("booking metric recorded", "booking_id", payload.BookingID, "event_type", meta.EventType)
		return nil
	}

	bookingTopics := []string{
		"booking.created.v1",
		"booking.assigned.v1",
		"booking.cancelled.v1",
		"booking.completed.v1",
	}
	for _, topic := range bookingTopics {
		bookingConsumer := kafkax.NewConsumer(logger, inboxRepo, kafkax.ConsumerConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, handleBookingEvent)
		go bookingConsumer.Run(ctx)
	}

	handleNotificationEvent := func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			NotificationID string `json:"notification_id"`
			Channel        string `json:"channel"`
			SentAt         string `json:"sent_at"`
			FailedAt       string `json:"failed_at"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid notification payload", "err", err)
			return nil
		}
		ts := payload.SentAt
		sentInc, failedInc := 1, 0
		if msg.Topic == "notification.failed.v1" {
			ts = payload.FailedAt
			sentInc, failedInc = 0, 1
		}
		if payload.Channel == "" || ts == "" {
			logger.Error("missing notification fields", "topic", msg.Topic)
			return nil
		}
		day, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			logger.Error("invalid notification timestamp", "err", err)
			return nil
		}

		if err := metricsRepo.ApplyNotificationEvent(ctx, payload.Channel, day, sentInc, failedInc); err != nil {
			logger.Error("failed to record notification metric", "err", err)
			return err
		}
		return nil
	}

	for _, topic := range []string{"notification.sent.v1", "notification.failed.v1"} {
		notificationConsumer := kafkax.NewConsumer(logger, inboxRepo, kafkax.ConsumerConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, handleNotificationEvent)
		go notificationConsumer.Run(ctx)
	}

	purchaseConsumer := kafkax.NewConsumer(logger, inboxRepo, kafkax.ConsumerConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "shop.purchase.recorded.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			PurchaseID string `json:"purchase_id"`
			Total      string `json:"total"`
			RecordedAt string `json:"recorded_at"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid purchase payload", "err", err)
			return nil
		}
		if payload.PurchaseID == "" || payload.Total == "" || payload.RecordedAt == "" {
			logger.Error("missing purchase fields")
			return nil
		}
		recordedAt, err := time.Parse(time.RFC3339, payload.RecordedAt)
		if err != nil {
			logger.Error("invalid recorded_at", "err", err)
			return nil
		}
		revenueCents, err := priceCents(payload.Total)
		if err != nil {
			logger.Error("invalid purchase total", "total", payload.Total)
			return nil
		}

		if err := metricsRepo.ApplyPurchase(ctx, recordedAt, revenueCents); err != nil {
			logger.Error("failed to record purchase metric", "err", err)
			return err
		}

		logger.Info("purchase metric recorded", "purchase_id", payload.PurchaseID)
		return nil
	})
	go purchaseConsumer.Run(ctx)

	authAuditConsumer := kafkax.NewConsumer(logger, inboxRepo, kafkax.ConsumerConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "auth.audit.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			EventType string          `json:"event_type"`
			ActorID   string          `json:"actor_id"`
			Metadata  json.RawMessage `json:"metadata"`
			CreatedAt string          `json:"created_at"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid auth audit payload", "err", err)
			return nil
		}
		if payload.EventType == "" || payload.CreatedAt == "" {
			logger.Error("missing auth audit fields")
			return nil
		}
		createdAt, err := time.Parse(time.RFC3339, payload.CreatedAt)
		if err != nil {
			logger.Error("invalid auth audit created_at", "err", err)
			return nil
		}

		if err := metricsRepo.RecordSecurityAudit(ctx, payload.EventType, payload.ActorID, payload.Metadata, createdAt); err != nil {
			logger.Error("failed to write security audit event", "err", err)
			return err
		}

		logger.Info("security audit recorded", "event_type", payload.EventType)
		return nil
	})
	go authAuditConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	analyticsHandler := handlers.NewHandler(metricsRepo, logger)
	mux.HandleFunc("/api/v1/analytics/summary", analyticsHandler.Summary)
	mux.HandleFunc("/api/v1/analytics/barbers", analyticsHandler.Barbers)
	mux.HandleFunc("/api/v1/analytics/notifications", analyticsHandler.Notifications)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "analytics")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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

func priceCents(price string) (int64, error) {
	whole, frac, _ := strings.Cut(price, ".")
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, errors.New("invalid price")
	}
	cents := w * 100
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0, errors.New("invalid price")
		}
		cents += f
	}
	return cents, nil
}
