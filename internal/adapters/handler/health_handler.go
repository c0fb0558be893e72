package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

// DBPinger is satisfied by *sql.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger is satisfied by *redis.Client.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

const probeTimeout = 5 * time.Second

type HealthHandler struct {
	db          DBPinger
	redisClient RedisPinger
	log         *logging.Logger
	startTime   time.Time
	version     string
}

func NewHealthHandler(db DBPinger, redisClient RedisPinger, log *logging.Logger) *HealthHandler {
	version := os.Getenv("APP_VERSION")
	if version == "" {
		version = "unknown"
	}
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		log:         log,
		startTime:   time.Now(),
		version:     version,
	}
}

// HealthResponse follows Kubernetes/OpenShift health check conventions
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health is a simple liveness check - just confirms the Go process is running
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, HealthResponse{
		Status:    "UP",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    map[string]Check{"process": {Status: "UP"}},
	})
}

// Ready checks if the service is ready to accept traffic (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.probe(r.Context(), "database", h.pingDatabase()),
		"redis":    h.probe(r.Context(), "redis", h.pingRedis()),
	}

	status, httpStatus := "UP", http.StatusOK
	for _, c := range checks {
		if c.Status != "UP" {
			status, httpStatus = "DOWN", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, h.log, httpStatus, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// Live is an alias for Health - simple liveness check
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	h.Health(w, r)
}

// pingFunc is nil when the dependency was never wired.
type pingFunc func(ctx context.Context) error

func (h *HealthHandler) pingDatabase() pingFunc {
	if h.db == nil {
		return nil
	}
	return h.db.PingContext
}

func (h *HealthHandler) pingRedis() pingFunc {
	if h.redisClient == nil {
		return nil
	}
	return func(ctx context.Context) error { return h.redisClient.Ping(ctx).Err() }
}

func (h *HealthHandler) probe(ctx context.Context, name string, ping pingFunc) Check {
	if ping == nil {
		return Check{Status: "DOWN", Message: name + " is not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		h.log.Warn("health: ping failed", "dependency", name, "error", err)
		return Check{Status: "DOWN", Message: "cannot reach " + name}
	}
	return Check{Status: "UP"}
}
