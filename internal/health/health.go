package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"

	defaultCheckTimeout = 2 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisPinger adapts a redis client, whose Ping returns a *StatusCmd.
func RedisPinger(client redis.UniversalClient) Pinger {
	return PingerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func PoolPinger(pool *pgxpool.Pool) Pinger {
	return PingerFunc(pool.Ping)
}

type Status struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

type DependencyCheck struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

type RuntimeInfo struct {
	GoVersion  string `json:"goVersion"`
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heapAllocBytes"`
}

type DetailedStatus struct {
	Status
	Storage      string            `json:"storage"`
	Dependencies []DependencyCheck `json:"dependencies"`
	Runtime      RuntimeInfo       `json:"runtime"`
}

type Handler struct {
	version      string
	storage      string
	startedAt    time.Time
	checkTimeout time.Duration
	deps         map[string]Pinger
	now          func() time.Time
}

type HandlerParams struct {
	Version      string
	Storage      string
	StartedAt    time.Time
	CheckTimeout time.Duration
	Dependencies map[string]Pinger
}

func NewHandler(params HandlerParams) *Handler {
	timeout := params.CheckTimeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	startedAt := params.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	deps := make(map[string]Pinger, len(params.Dependencies))
	for name, p := range params.Dependencies {
		if p != nil {
			deps[name] = p
		}
	}
	return &Handler{
		version:      params.Version,
		storage:      params.Storage,
		startedAt:    startedAt,
		checkTimeout: timeout,
		deps:         deps,
		now:          time.Now,
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, http.StatusOK, h.status(StatusOK))
}

// HandleDetailed always answers 200; a failed dependency only marks the report as degraded.
func (h *Handler) HandleDetailed(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.health.detailed")
	defer span.End()

	checks, healthy := h.Check(ctx)
	overall := StatusOK
	if !healthy {
		overall = StatusDegraded
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	pkg.WriteJSON(w, http.StatusOK, DetailedStatus{
		Status:       h.status(overall),
		Storage:      h.storage,
		Dependencies: checks,
		Runtime: RuntimeInfo{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			HeapAlloc:  mem.HeapAlloc,
		},
	})
}

func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.health.ready")
	defer span.End()

	checks, healthy := h.Check(ctx)
	if !healthy {
		pkg.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":       StatusDown,
			"dependencies": checks,
		})
		return
	}
	pkg.WriteJSON(w, http.StatusOK, map[string]any{
		"status":       StatusOK,
		"dependencies": checks,
	})
}

func (h *Handler) HandleLive(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusOK})
}

// Check pings every dependency sequentially, each bounded by the check timeout.
// Results are sorted by dependency name.
func (h *Handler) Check(ctx context.Context) ([]DependencyCheck, bool) {
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	checks := make([]DependencyCheck, 0, len(names))
	for _, name := range names {
		check := h.ping(ctx, name, h.deps[name])
		if check.Status != StatusOK {
			healthy = false
		}
		checks = append(checks, check)
	}
	return checks, healthy
}

func (h *Handler) ping(ctx context.Context, name string, p Pinger) DependencyCheck {
	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	check := DependencyCheck{
		Name:      name,
		Status:    StatusOK,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		log.Warnf("health check [%s] failed: %s", name, err)
		check.Status = StatusDown
		check.Error = err.Error()
	}
	return check
}

func (h *Handler) status(status string) Status {
	now := h.now()
	return Status{
		Status:    status,
		Timestamp: now.UTC(),
		Version:   h.version,
		Uptime:    now.Sub(h.startedAt).Round(time.Second).String(),
	}
}
