package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

type readyResponse struct {
	Status string           `json:"status"`
	Checks map[string]Check `json:"checks"`
}

func newHealthDeps(t *testing.T) (sqlmock.Sqlmock, *miniredis.Miniredis, *HealthHandler) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mock, mr, NewHealthHandler(db, client, logging.Discard())
}

func TestHealth(t *testing.T) {
	t.Setenv("APP_VERSION", "1.2.3")
	h := NewHealthHandler(nil, nil, logging.Discard())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "UP", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestReady_AllUp(t *testing.T) {
	mock, _, h := newHealthDeps(t)
	mock.ExpectPing()

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[readyResponse](t, rec)
	assert.Equal(t, "UP", resp.Status)
	assert.Equal(t, "UP", resp.Checks["database"].Status)
	assert.Equal(t, "UP", resp.Checks["redis"].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReady_DatabaseDown(t *testing.T) {
	mock, _, h := newHealthDeps(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[readyResponse](t, rec)
	assert.Equal(t, "DOWN", resp.Status)
	assert.Equal(t, "DOWN", resp.Checks["database"].Status)
	assert.Equal(t, "UP", resp.Checks["redis"].Status)
}

func TestReady_RedisDown(t *testing.T) {
	mock, mr, h := newHealthDeps(t)
	mock.ExpectPing()
	mr.Close()

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DOWN", decode[readyResponse](t, rec).Checks["redis"].Status)
}

func TestReady_NotInitialised(t *testing.T) {
	h := NewHealthHandler(nil, nil, logging.Discard())

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
