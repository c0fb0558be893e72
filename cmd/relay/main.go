package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/messaging"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/outbox"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/config"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

func main() {
	cfg := config.LoadRelayConfig()
	log := logging.New(cfg.LogLevel)
	log.Info("starting outbox relay service")

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("relay: failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("relay: database connection initialized - circuit breaker will validate on first operation")

	broker, err := messaging.NewRabbitMQBroker(cfg.RabbitMQURL, cfg.CareQueueName, log)
	if err != nil {
		log.Error("relay: failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer broker.Close()
	log.Info("relay: connected to RabbitMQ", "queue", cfg.CareQueueName)

	worker := outbox.NewRelay(db, cfg.DatabaseURL, broker, log)

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", probe(worker.IsHealthy))
	healthMux.HandleFunc("/health/live", probe(worker.IsHealthy))
	healthMux.HandleFunc("/health/ready", probe(func() bool { return worker.IsReady() && broker.Connected() }))

	healthServer := &http.Server{
		Addr:              ":" + cfg.HealthPort,
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("relay: starting health check server", "port", cfg.HealthPort)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("relay: health server error", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Channel to capture fatal errors from relay worker
	errChan := make(chan error, 1)

	go func() {
		log.Info("relay: starting event processing worker")
		if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("relay: received signal, initiating shutdown", "signal", sig.String())
	case err := <-errChan:
		log.Error("relay: fatal error, shutting down", "error", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error("relay: error shutting down health server", "error", err)
	}

	log.Info("relay: shutdown complete")
}

func probe(check func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "UP"
		httpStatus := http.StatusOK
		if !check() {
			status = "DOWN"
			httpStatus = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    status,
			"component": "outbox-relay",
		})
	}
}
