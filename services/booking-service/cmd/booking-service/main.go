package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dreyes/barberflow/libs/config"
	"github.com/dreyes/barberflow/libs/db"
	"github.com/dreyes/barberflow/libs/httpx"
	"github.com/dreyes/barberflow/libs/kafkax"
	otelx "github.com/dreyes/barberflow/libs/otel"
	"github.com/dreyes/barberflow/libs/outbox"
	"github.com/dreyes/barberflow/libs/runtime"
	"github.com/dreyes/barberflow/services/booking-service/internal/handlers"
	"github.com/dreyes/barberflow/services/booking-service/internal/schedule"
	"github.com/dreyes/barberflow/services/booking-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
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

	bookingRepo := storage.NewBookingRepository(pool)
	barberRepo := storage.NewBarberRepository(pool)
	serviceRepo := storage.NewServiceRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	opts := schedule.Options{}
	if mins, err := config.Minutes("SLOT_STEP_MINUTES", 15); err != nil {
		logger.Warn("invalid SLOT_STEP_MINUTES; using default", "err", err)
	} else {
		opts.Step = mins
	}
	if mins, err := config.Minutes("SLOT_LEAD_TIME_MINUTES", 30); err != nil {
		logger.Warn("invalid SLOT_LEAD_TIME_MINUTES; using default", "err", err)
	} else {
		opts.LeadTime = mins
	}

	bookingHandler := handlers.NewBookingHandler(bookingRepo, barberRepo, serviceRepo, outboxRepo, logger, opts, nil)
	catalogHandler := handlers.NewCatalogHandler(barberRepo, serviceRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/availability/slots", bookingHandler.Slots)
	mux.HandleFunc("/api/v1/availability/check", bookingHandler.Check)
	mux.HandleFunc("/api/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			bookingHandler.List(w, r)
		case http.MethodPost:
			bookingHandler.Create(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/bookings/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case hasSuffix(r.URL.Path, "/assign"):
			bookingHandler.Assign(w, r)
		case hasSuffix(r.URL.Path, "/reschedule"):
			bookingHandler.Reschedule(w, r)
		case hasSuffix(r.URL.Path, "/cancel"):
			bookingHandler.Cancel(w, r)
		case hasSuffix(r.URL.Path, "/complete"):
			bookingHandler.Complete(w, r)
		default:
			bookingHandler.Get(w, r)
		}
	})
	mux.HandleFunc("/api/v1/barbers", catalogHandler.Barbers)
	mux.HandleFunc("/api/v1/barbers/", catalogHandler.BarberByID)
	mux.HandleFunc("/api/v1/services", catalogHandler.Services)
	mux.HandleFunc("/api/v1/services/", catalogHandler.ServiceByID)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
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

func hasSuffix(path, suffix string) bool {
	return len(path) >= len(suffix) && path[len(path)-len(suffix):] == suffix
}
