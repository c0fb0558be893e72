package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/handler"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/journal"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/middleware"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/repository"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/session"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/config"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/services"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/store"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/metrics"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := repository.NewSQLRepository(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis", "address", cfg.RedisAddress)

	m := metrics.New()
	st := store.New()

	restoreCtx, cancelRestore := context.WithTimeout(ctx, 30*time.Second)
	if err := journal.Restore(restoreCtx, repo, st); err != nil {
		log.Error("failed to restore records", "error", err)
		cancelRestore()
		os.Exit(1)
	}
	cancelRestore()
	log.Info("records restored",
		"patients", st.Patients.Len(),
		"payments", st.Payments.Len(),
		"requisitions", st.Requisitions.Len(),
		"events", st.Events.Len(),
	)

	detach := journal.New(repo, st, log.With("component", "journal"), m.JournalFailures).Attach()
	defer detach()
	unsubscribe := st.Subscribe(func(c store.Change) {
		m.ObserveMutation(c.Collection, string(c.Kind))
	})
	defer unsubscribe()

	tokens := session.NewTokenIssuer(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.SessionTTL)
	authService := services.NewAuthService(repo, session.NewRedisStore(redisClient), tokens, log)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService, log),
		Records:        handler.NewRecordsHandler(st, log),
		Notifications:  handler.NewNotificationsHandler(st.Inbox, log),
		Health:         handler.NewHealthHandler(db, redisClient, log),
		Guard:          middleware.NewAuthMiddleware(authService, m, log),
		Metrics:        m,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
	case err := <-errChan:
		log.Error("server error, shutting down", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error shutting down server", "error", err)
	}
	log.Info("shutdown complete")
}
