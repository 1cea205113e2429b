package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealth(t *testing.T) {
	startedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	h := NewHandler(HandlerParams{Version: "1.2.3", StartedAt: startedAt})
	h.now = func() time.Time { return startedAt.Add(90 * time.Second) }

	rr := httptest.NewRecorder()
	h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, StatusOK, status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, "1m30s", status.Uptime)
	assert.True(t, status.Timestamp.Equal(startedAt.Add(90*time.Second)))
}

func TestHandleLive(t *testing.T) {
	h := NewHandler(HandlerParams{})
	rr := httptest.NewRecorder()
	h.HandleLive(rr, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHandleReady_RedisUp(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")

	h := NewHandler(HandlerParams{
		Dependencies: map[string]Pinger{"redis": RedisPinger(rdb)},
	})
	rr := httptest.NewRecorder()
	h.HandleReady(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleReady_RedisDown(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectPing().SetErr(errors.New("connection refused"))

	h := NewHandler(HandlerParams{
		Dependencies: map[string]Pinger{"redis": RedisPinger(rdb)},
	})
	rr := httptest.NewRecorder()
	h.HandleReady(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var body struct {
		Status       string            `json:"status"`
		Dependencies []DependencyCheck `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, StatusDown, body.Status)
	require.Len(t, body.Dependencies, 1)
	assert.Equal(t, "redis", body.Dependencies[0].Name)
	assert.Equal(t, "connection refused", body.Dependencies[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleDetailed(t *testing.T) {
	h := NewHandler(HandlerParams{
		Version: "dev",
		Storage: "postgres",
		Dependencies: map[string]Pinger{
			"redis":    PingerFunc(func(context.Context) error { return nil }),
			"postgres": PingerFunc(func(context.Context) error { return errors.New("pool closed") }),
			"skipped":  nil,
		},
	})
	rr := httptest.NewRecorder()
	h.HandleDetailed(rr, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var detailed DetailedStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &detailed))
	assert.Equal(t, StatusDegraded, detailed.Status.Status)
	assert.Equal(t, "postgres", detailed.Storage)
	require.Len(t, detailed.Dependencies, 2)
	assert.Equal(t, "postgres", detailed.Dependencies[0].Name)
	assert.Equal(t, StatusDown, detailed.Dependencies[0].Status)
	assert.Equal(t, "redis", detailed.Dependencies[1].Name)
	assert.Equal(t, StatusOK, detailed.Dependencies[1].Status)
	assert.Positive(t, detailed.Runtime.Goroutines)
	assert.NotEmpty(t, detailed.Runtime.GoVersion)
}

func TestCheck_TimeoutBoundsSlowDependency(t *testing.T) {
	h := NewHandler(HandlerParams{
		CheckTimeout: 20 * time.Millisecond,
		Dependencies: map[string]Pinger{
			"slow": PingerFunc(func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			}),
		},
	})

	checks, healthy := h.Check(context.Background())
	assert.False(t, healthy)
	require.Len(t, checks, 1)
	assert.Equal(t, context.DeadlineExceeded.Error(), checks[0].Error)
}
